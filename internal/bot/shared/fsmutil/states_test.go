package fsmutil

import (
	"testing"
	"time"
)

type formState struct{ step int }

func TestStatesDropChat(t *testing.T) {
	a := NewStates[formState]()
	b := NewStates[string]()
	s := "picking"
	a.Set(10, &formState{step: 2})
	b.Set(10, &s)
	a.Set(11, &formState{})

	DropChat(10)
	if a.Get(10) != nil || b.Get(10) != nil {
		t.Fatal("все сценарии чата должны сброситься")
	}
	if a.Get(11) == nil {
		t.Fatal("чужой чат трогать нельзя")
	}
	a.Delete(11)
}

func TestStatesDropIdle(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock = func() time.Time { return now }
	defer func() { clock = time.Now }()

	st := NewStates[formState]()
	st.Set(1, &formState{})
	st.Set(2, &formState{})

	now = now.Add(90 * time.Minute)
	_ = st.Get(2) // чат 2 активен

	now = now.Add(40 * time.Minute)
	if n := DropIdle(2 * time.Hour); n != 1 {
		t.Fatalf("ожидали один сброс, получили %d", n)
	}
	if st.Get(1) != nil || st.Get(2) == nil {
		t.Fatal("сбросить нужно только простаивающий чат")
	}
}
