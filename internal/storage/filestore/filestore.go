// Package filestore хранит local storage чатов в JSON-файлах: один файл на чат.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("filestore: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(chatID int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(chatID, 10)+".json")
}

// read читает файл чата; отсутствующий или битый файл — пустое хранилище.
func (s *Store) read(chatID int64) (map[string]string, error) {
	raw, err := os.ReadFile(s.path(chatID))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	kv := map[string]string{}
	if err := json.Unmarshal(raw, &kv); err != nil {
		return map[string]string{}, nil
	}
	return kv, nil
}

func (s *Store) write(chatID int64, kv map[string]string) error {
	p := s.path(chatID)
	if len(kv) == 0 {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	raw, err := json.Marshal(kv)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".chat-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	// rename атомарен в пределах одного каталога
	return os.Rename(tmp.Name(), p)
}

func (s *Store) Get(_ context.Context, chatID int64, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read(chatID)
	if err != nil {
		return "", false, err
	}
	v, ok := kv[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, chatID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read(chatID)
	if err != nil {
		return err
	}
	kv[key] = value
	return s.write(chatID, kv)
}

func (s *Store) Remove(_ context.Context, chatID int64, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read(chatID)
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(kv, k)
	}
	return s.write(chatID, kv)
}

func (s *Store) Ping(context.Context) error {
	st, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("filestore: %s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() error { return nil }
