package fsmutil

import (
	"sync"
	"time"
)

// States — состояния одного сценария по чатам. Все States регистрируются глобально,
// чтобы выход на логин и fsm_gc могли сбросить чат целиком.
type States[T any] struct {
	mu sync.Mutex
	m  map[int64]*entry[T]
}

type entry[T any] struct {
	v    *T
	seen time.Time
}

type dropper interface {
	drop(chatID int64)
	dropIdle(before time.Time) int
}

var registry struct {
	mu  sync.Mutex
	all []dropper
}

// clock подменяется в тестах.
var clock = time.Now

func NewStates[T any]() *States[T] {
	s := &States[T]{m: make(map[int64]*entry[T])}
	registry.mu.Lock()
	registry.all = append(registry.all, s)
	registry.mu.Unlock()
	return s
}

// Get возвращает состояние чата (nil, если сценарий не идёт) и продлевает ему жизнь.
func (s *States[T]) Get(chatID int64) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[chatID]
	if !ok {
		return nil
	}
	e.seen = clock()
	return e.v
}

func (s *States[T]) Set(chatID int64, v *T) {
	s.mu.Lock()
	s.m[chatID] = &entry[T]{v: v, seen: clock()}
	s.mu.Unlock()
}

func (s *States[T]) Delete(chatID int64) { s.drop(chatID) }

func (s *States[T]) drop(chatID int64) {
	s.mu.Lock()
	delete(s.m, chatID)
	s.mu.Unlock()
}

func (s *States[T]) dropIdle(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.m {
		if e.seen.Before(before) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// DropChat сбрасывает все сценарии чата и флаг pending.
func DropChat(chatID int64) {
	registry.mu.Lock()
	all := append([]dropper(nil), registry.all...)
	registry.mu.Unlock()
	for _, d := range all {
		d.drop(chatID)
	}
	DropPending(chatID)
}

// DropIdle сбрасывает состояния, к которым не обращались дольше ttl. Возвращает число сброшенных.
func DropIdle(ttl time.Duration) int {
	before := clock().Add(-ttl)
	registry.mu.Lock()
	all := append([]dropper(nil), registry.all...)
	registry.mu.Unlock()
	n := 0
	for _, d := range all {
		n += d.dropIdle(before)
	}
	return n
}
