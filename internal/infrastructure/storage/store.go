// Package storage предоставляет key-value хранилище для состояния сервера.
//
// Ключи - логические имена файлов: "<board-id>.txt" для досок,
// "active.db" и "all_boards.db" для состояния каталога досок.
package storage

import "errors"

// ErrNotFound возвращается Get, если ключа нет в хранилище.
var ErrNotFound = errors.New("key not found")

// Store это контракт персистентного хранилища (ключ -> байты).
// Реализации должны быть безопасны для конкурентных вызовов.
type Store interface {
	// Put записывает данные по ключу, перезаписывая существующие.
	Put(key string, data []byte) error

	// Get возвращает данные по ключу или ErrNotFound.
	Get(key string) ([]byte, error)

	// List возвращает все ключи с данным суффиксом ("" - все ключи).
	List(suffix string) ([]string, error)

	Close() error
}
