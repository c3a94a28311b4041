package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/nkprasad12/dnd/pkg/logger"
)

// PebbleStore хранит ключи в LSM-базе Pebble.
// Альтернатива FileStore для инсталляций, где досок много и
// директория с россыпью мелких файлов становится неудобной.
type PebbleStore struct {
	db   *pebble.DB
	path string
}

// NewPebbleStore открывает (или создает) базу по указанному пути.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{
		Logger: pebbleLogger{},
	})
	if err != nil {
		return nil, fmt.Errorf("pebble open %s: %w", path, err)
	}
	logger.Log.WithField("path", path).Info("Pebble store opened")
	return &PebbleStore{db: db, path: path}, nil
}

func (s *PebbleStore) Put(key string, data []byte) error {
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

func (s *PebbleStore) Get(key string) ([]byte, error) {
	data, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()

	// Данные валидны только до closer.Close(), поэтому копируем.
	out := append([]byte(nil), data...)
	return out, nil
}

func (s *PebbleStore) List(suffix string) ([]string, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key())
		if strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// pebbleLogger перенаправляет внутренние логи Pebble в общий логгер.
type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	logger.Log.Debugf("pebble: "+format, args...)
}

func (pebbleLogger) Errorf(format string, args ...interface{}) {
	logger.Log.Errorf("pebble: "+format, args...)
}

func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	logger.Log.Fatalf("pebble: "+format, args...)
}
