// Package storage — «local storage» бота: небольшое key/value на каждый чат.
// Каждый чат Telegram для нас то же, что отдельный браузер: свой токен, свой пользователь.
package storage

import (
	"context"
	"sync"

	"github.com/rusl-cricket/attendance-bot/internal/ctxutil"
)

type Backend interface {
	Get(ctx context.Context, chatID int64, key string) (string, bool, error)
	Set(ctx context.Context, chatID int64, key, value string) error
	Remove(ctx context.Context, chatID int64, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Local — бэкенд, привязанный к одному чату.
type Local struct {
	b      Backend
	chatID int64
}

func For(b Backend, chatID int64) *Local {
	return &Local{b: b, chatID: chatID}
}

func (l *Local) ChatID() int64 { return l.chatID }

// Обращения к хранилищу ограничены ctxutil.DefaultStorageTimeout.

func (l *Local) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := ctxutil.WithStorageTimeout(ctx)
	defer cancel()
	return l.b.Get(ctx, l.chatID, key)
}

func (l *Local) Set(ctx context.Context, key, value string) error {
	ctx, cancel := ctxutil.WithStorageTimeout(ctx)
	defer cancel()
	return l.b.Set(ctx, l.chatID, key, value)
}

func (l *Local) Remove(ctx context.Context, keys ...string) error {
	ctx, cancel := ctxutil.WithStorageTimeout(ctx)
	defer cancel()
	return l.b.Remove(ctx, l.chatID, keys...)
}

// Memory — бэкенд в памяти процесса (тесты и STORAGE_BACKEND=memory).
type Memory struct {
	mu   sync.RWMutex
	data map[int64]map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[int64]map[string]string)}
}

func (m *Memory) Get(_ context.Context, chatID int64, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[chatID][key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, chatID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.data[chatID]
	if !ok {
		kv = make(map[string]string)
		m.data[chatID] = kv
	}
	kv[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, chatID int64, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.data[chatID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(kv, k)
	}
	if len(kv) == 0 {
		delete(m.data, chatID)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error              { return nil }
