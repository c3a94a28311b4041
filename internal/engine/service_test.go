package engine

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/nkprasad12/dnd/internal/domain"
	"github.com/nkprasad12/dnd/internal/network"
	"github.com/nkprasad12/dnd/pkg/api"
)

// Helper: сервис с fake-хранилищем и двумя подписчиками
func setupServiceTest(t *testing.T) (*SyncService, *fakeStore, chan api.ServerEvent, chan api.ServerEvent) {
	t.Helper()
	store := newFakeStore()
	cache := NewBoardCache(store, time.Hour)
	hub := network.NewBroadcaster()
	service := NewSyncService(cache, NewBoardDirectory(store), hub)

	alice := hub.Register("alice")
	bob := hub.Register("bob")
	return service, store, alice, bob
}

// События прогоняем через dispatch напрямую: очередь здесь не при чем,
// важен эффект обработчиков.
func send(s *SyncService, event, sender string, payload interface{}) {
	raw, _ := json.Marshal(payload)
	s.dispatch(domain.InboundEvent{Event: event, Sender: sender, Payload: raw})
}

func recvEvent(t *testing.T, ch chan api.ServerEvent) api.ServerEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	default:
		t.Fatal("Expected an event, got none")
		return api.ServerEvent{}
	}
}

func assertNoEvent(t *testing.T, ch chan api.ServerEvent) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("Unexpected event: %+v", ev)
	default:
	}
}

func TestSyncService_CreateBoard(t *testing.T) {
	service, _, alice, bob := setupServiceTest(t)

	board := testBoard("b1")
	send(service, api.EventBoardCreateRequest, "alice", board)

	// Доска в кэше
	if _, ok := service.Cache.GetBoard("b1"); !ok {
		t.Error("Created board not in cache")
	}
	// И зарегистрирована в каталоге
	if ids := service.Directory.ListBoardIDs(); !reflect.DeepEqual(ids, []string{"b1"}) {
		t.Errorf("Board id not registered: %v", ids)
	}
	// create ничего не рассылает
	assertNoEvent(t, alice)
	assertNoEvent(t, bob)
}

func TestSyncService_CreateInvalidBoardIgnored(t *testing.T) {
	service, _, _, _ := setupServiceTest(t)

	send(service, api.EventBoardCreateRequest, "alice", api.Board{Name: "без id"})

	if ids := service.Directory.ListBoardIDs(); len(ids) != 0 {
		t.Errorf("Invalid board registered: %v", ids)
	}
}

func TestSyncService_UpdateMergesAndRebroadcasts(t *testing.T) {
	service, _, alice, bob := setupServiceTest(t)
	send(service, api.EventBoardCreateRequest, "alice", testBoard("b1"))

	diff := api.BoardDiff{
		ID: "b1",
		TokenDiffs: []api.TokenDiff{
			{ID: "t1", Location: &api.Location{Col: 1, Row: 1}},
		},
	}
	send(service, api.EventBoardUpdate, "alice", diff)

	// Канонический снимок обновлен
	board, ok := service.Cache.GetBoard("b1")
	if !ok {
		t.Fatal("Board missing after update")
	}
	if board.Tokens[0].Location != (api.Location{Col: 1, Row: 1}) {
		t.Errorf("Merge not applied: %+v", board.Tokens[0])
	}

	// Остальные получают СЫРОЙ дифф (не влитый документ), автор - ничего
	ev := recvEvent(t, bob)
	if ev.Event != api.EventBoardUpdate {
		t.Errorf("Wrong event: %s", ev.Event)
	}
	var received api.BoardDiff
	if err := json.Unmarshal(ev.Payload.(json.RawMessage), &received); err != nil {
		t.Fatalf("Broadcast payload is not the diff: %v", err)
	}
	if !reflect.DeepEqual(received, diff) {
		t.Errorf("Broadcast diff mismatch. Got %+v, want %+v", received, diff)
	}
	assertNoEvent(t, alice)
}

func TestSyncService_UpdateForUnknownBoardStillBroadcast(t *testing.T) {
	service, _, alice, bob := setupServiceTest(t)

	diff := api.BoardDiff{ID: "ghost"}
	send(service, api.EventBoardUpdate, "alice", diff)

	// Влить некуда, но пиры дифф все равно получают
	ev := recvEvent(t, bob)
	if ev.Event != api.EventBoardUpdate {
		t.Errorf("Wrong event: %s", ev.Event)
	}
	assertNoEvent(t, alice)
	if _, ok := service.Cache.GetBoard("ghost"); ok {
		t.Error("Ghost board appeared in cache")
	}
}

func TestSyncService_UpdateWithoutIDIgnored(t *testing.T) {
	service, _, _, bob := setupServiceTest(t)

	send(service, api.EventBoardUpdate, "alice", api.BoardDiff{})

	// Невалидный дифф не рассылается
	assertNoEvent(t, bob)
}

func TestSyncService_GetRepliesToRequesterOnly(t *testing.T) {
	service, _, alice, bob := setupServiceTest(t)
	send(service, api.EventBoardCreateRequest, "alice", testBoard("b1"))

	send(service, api.EventBoardGetRequest, "alice", "b1")

	ev := recvEvent(t, alice)
	if ev.Event != api.EventBoardGetResponse {
		t.Errorf("Wrong event: %s", ev.Event)
	}
	board := ev.Payload.(*api.Board)
	if board.ID != "b1" {
		t.Errorf("Wrong board in reply: %s", board.ID)
	}
	assertNoEvent(t, bob)
}

func TestSyncService_GetUnknownBoardYieldsEmptyDefault(t *testing.T) {
	service, _, alice, _ := setupServiceTest(t)

	send(service, api.EventBoardGetRequest, "alice", "nope")

	// Отсутствие доски - не ошибка: приходит пустая заглушка
	ev := recvEvent(t, alice)
	board := ev.Payload.(*api.Board)
	if board.ID != "nope" || len(board.Tokens) != 0 {
		t.Errorf("Expected empty default board, got %+v", board)
	}
}

func TestSyncService_GetAll(t *testing.T) {
	service, _, alice, _ := setupServiceTest(t)
	send(service, api.EventBoardCreateRequest, "alice", testBoard("b1"))
	send(service, api.EventBoardCreateRequest, "alice", testBoard("b2"))

	send(service, api.EventBoardGetAllRequest, "alice", nil)

	ev := recvEvent(t, alice)
	if ev.Event != api.EventBoardGetAllResponse {
		t.Errorf("Wrong event: %s", ev.Event)
	}
	if ids := ev.Payload.([]string); !reflect.DeepEqual(ids, []string{"b1", "b2"}) {
		t.Errorf("Wrong id list: %v", ids)
	}
}

func TestSyncService_GetAllOnFreshServer(t *testing.T) {
	service, _, alice, _ := setupServiceTest(t)

	send(service, api.EventBoardGetAllRequest, "alice", nil)

	ev := recvEvent(t, alice)
	if ev.Event != api.EventBoardGetAllResponse {
		t.Errorf("Wrong event: %s", ev.Event)
	}
	// Досок еще нет - ответ обязан быть пустым массивом, не null
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("Empty board list marshals as %s, want []", data)
	}
}

func TestSyncService_ActiveBoardRoundTrip(t *testing.T) {
	service, _, alice, _ := setupServiceTest(t)

	// До первого set-active приходит дефолтная пустая строка
	send(service, api.EventBoardGetActiveRequest, "alice", nil)
	if ev := recvEvent(t, alice); ev.Payload.(string) != "" {
		t.Errorf("Expected empty active board, got %v", ev.Payload)
	}

	send(service, api.EventBoardSetActive, "alice", "b1")
	send(service, api.EventBoardGetActiveRequest, "alice", nil)
	if ev := recvEvent(t, alice); ev.Payload.(string) != "b1" {
		t.Errorf("Active board not set: %v", ev.Payload)
	}
}

func TestSyncService_EventLoopOrdering(t *testing.T) {
	service, _, _, _ := setupServiceTest(t)
	service.Start()
	defer service.Stop()

	board := testBoard("b1")
	raw, _ := json.Marshal(board)
	service.ProcessEvent(domain.InboundEvent{
		Event: api.EventBoardCreateRequest, Sender: "alice", Payload: raw,
	})
	for i := 0; i < 5; i++ {
		diff := api.BoardDiff{
			ID: "b1",
			TokenDiffs: []api.TokenDiff{
				{ID: "t1", Location: &api.Location{Col: i, Row: i}},
			},
		}
		rawDiff, _ := json.Marshal(diff)
		service.ProcessEvent(domain.InboundEvent{
			Event: api.EventBoardUpdate, Sender: "alice", Payload: rawDiff,
		})
	}

	// Обновления применяются в порядке поступления: побеждает последний дифф
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b, ok := service.Cache.GetBoard("b1"); ok &&
			b.Tokens[0].Location == (api.Location{Col: 4, Row: 4}) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("Updates were not applied in arrival order")
}

// Сквозной сценарий: создание, дифф, каталог
func TestSyncService_EndToEndScenario(t *testing.T) {
	service, _, alice, _ := setupServiceTest(t)

	board := &api.Board{
		ID:     "b1",
		Tokens: []api.Token{{ID: "t1", Location: api.Location{Col: 0, Row: 0}, Speed: 6}},
	}
	send(service, api.EventBoardCreateRequest, "alice", board)

	send(service, api.EventBoardUpdate, "bob", api.BoardDiff{
		ID:            "b1",
		NewTokens:     []api.Token{},
		RemovedTokens: []string{},
		TokenDiffs: []api.TokenDiff{
			{ID: "t1", Location: &api.Location{Col: 1, Row: 1}},
		},
	})
	// alice - не автор диффа, ей он пришел рассылкой
	if ev := recvEvent(t, alice); ev.Event != api.EventBoardUpdate {
		t.Errorf("Expected diff broadcast, got %s", ev.Event)
	}

	got, ok := service.Cache.GetBoard("b1")
	if !ok {
		t.Fatal("Board missing")
	}
	want := []api.Token{{ID: "t1", Location: api.Location{Col: 1, Row: 1}, Speed: 6}}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("Token list mismatch. Got %+v, want %+v", got.Tokens, want)
	}

	send(service, api.EventBoardGetAllRequest, "alice", nil)
	ev := recvEvent(t, alice)
	if ids := ev.Payload.([]string); !reflect.DeepEqual(ids, []string{"b1"}) {
		t.Errorf("get-all mismatch: %v", ids)
	}
}
