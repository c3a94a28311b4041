package engine

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBoardDirectory_EmptyByDefault(t *testing.T) {
	dir := NewBoardDirectory(newFakeStore())

	if ids := dir.ListBoardIDs(); len(ids) != 0 {
		t.Errorf("Fresh directory not empty: %v", ids)
	}
	// Активная доска не выставлялась - дефолтная пустая строка, не ошибка
	if active := dir.ActiveBoardID(); active != "" {
		t.Errorf("Expected empty active board, got %q", active)
	}
}

func TestBoardDirectory_EmptyListMarshalsAsArray(t *testing.T) {
	dir := NewBoardDirectory(newFakeStore())

	// Пустой список - это все равно список: клиенты итерируют ответ
	// board-get-all и на null падают
	ids := dir.ListBoardIDs()
	if ids == nil {
		t.Fatal("ListBoardIDs returned nil for empty directory")
	}
	data, err := json.Marshal(ids)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("Empty id list marshals as %s, want []", data)
	}
}

func TestBoardDirectory_RegisterIsWriteThrough(t *testing.T) {
	store := newFakeStore()
	dir := NewBoardDirectory(store)

	dir.RegisterBoardID("b1")
	dir.RegisterBoardID("b2")
	dir.RegisterBoardID("b1") // дубликат игнорируется

	if ids := dir.ListBoardIDs(); !reflect.DeepEqual(ids, []string{"b1", "b2"}) {
		t.Errorf("Unexpected id list: %v", ids)
	}

	// Каталог пишется в хранилище сразу, без ожидания flush
	data, err := store.Get("all_boards.db")
	if err != nil {
		t.Fatalf("Id list not persisted: %v", err)
	}
	var persisted []string
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("Persisted list unreadable: %v", err)
	}
	if !reflect.DeepEqual(persisted, []string{"b1", "b2"}) {
		t.Errorf("Persisted list mismatch: %v", persisted)
	}
}

func TestBoardDirectory_LoadsPersistedState(t *testing.T) {
	store := newFakeStore()
	if err := store.Put("all_boards.db", []byte(`["b1","b2"]`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Put("active.db", []byte("b2")); err != nil {
		t.Fatal(err)
	}

	dir := NewBoardDirectory(store)

	if ids := dir.ListBoardIDs(); !reflect.DeepEqual(ids, []string{"b1", "b2"}) {
		t.Errorf("Stored ids not loaded: %v", ids)
	}
	if active := dir.ActiveBoardID(); active != "b2" {
		t.Errorf("Stored active board not loaded: %q", active)
	}
}

func TestBoardDirectory_SetActiveIsWriteThrough(t *testing.T) {
	store := newFakeStore()
	dir := NewBoardDirectory(store)

	dir.SetActiveBoardID("b7")

	if active := dir.ActiveBoardID(); active != "b7" {
		t.Errorf("Active board not updated: %q", active)
	}
	data, err := store.Get("active.db")
	if err != nil {
		t.Fatalf("Active board not persisted: %v", err)
	}
	if string(data) != "b7" {
		t.Errorf("Persisted active board mismatch: %q", string(data))
	}
}

func TestBoardDirectory_CorruptIDListTreatedAsEmpty(t *testing.T) {
	store := newFakeStore()
	if err := store.Put("all_boards.db", []byte("not json")); err != nil {
		t.Fatal(err)
	}

	dir := NewBoardDirectory(store)

	if ids := dir.ListBoardIDs(); len(ids) != 0 {
		t.Errorf("Corrupt list should read as empty, got %v", ids)
	}
	// Последующая регистрация перезаписывает мусор валидным списком
	dir.RegisterBoardID("b1")
	data, err := store.Get("all_boards.db")
	if err != nil {
		t.Fatal(err)
	}
	var persisted []string
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("List still corrupt after register: %v", err)
	}
}

func TestBoardDirectory_MemoryCopyIsAuthoritative(t *testing.T) {
	store := newFakeStore()
	dir := NewBoardDirectory(store)

	dir.RegisterBoardID("b1")

	// Внешняя правка хранилища после загрузки не видна:
	// копия в памяти авторитетна до конца жизни процесса
	if err := store.Put("all_boards.db", []byte(`["other"]`)); err != nil {
		t.Fatal(err)
	}
	if ids := dir.ListBoardIDs(); !reflect.DeepEqual(ids, []string{"b1"}) {
		t.Errorf("Directory re-read the store: %v", ids)
	}
}
