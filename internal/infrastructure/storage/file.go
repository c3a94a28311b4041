package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore хранит каждый ключ отдельным файлом в корневой директории.
// Это исторический формат server_db: доски лежат рядом как "<id>.txt".
type FileStore struct {
	root string
}

// NewFileStore создает FileStore, при необходимости создавая директорию.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) Put(key string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.root, key), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) List(suffix string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list store dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), suffix) {
			keys = append(keys, e.Name())
		}
	}
	return keys, nil
}

func (s *FileStore) Close() error {
	return nil
}
