package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rusl-cricket/attendance-bot/internal/ctxutil"
)

func TestWith_AddsContextFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := ctxutil.WithOp(ctxutil.WithChatID(context.Background(), 42), "attendance")

	With(ctx, zap.New(core)).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("ожидали одну запись, получили %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["chat_id"] != int64(42) {
		t.Fatalf("chat_id: %v", fields["chat_id"])
	}
	if fields["op"] != "attendance" {
		t.Fatalf("op: %v", fields["op"])
	}
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	l, err := Init("nonsense", "dev")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Closer()
	if l.Level.Level() != zap.InfoLevel {
		t.Fatalf("уровень: %v", l.Level.Level())
	}
}
