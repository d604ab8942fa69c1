// Package storagetest — общий набор проверок для реализаций storage.Backend.
package storagetest

import (
	"context"
	"testing"

	"github.com/rusl-cricket/attendance-bot/internal/storage"
)

func Run(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing_key", func(t *testing.T) {
		if _, ok, err := b.Get(ctx, 1001, "token"); err != nil || ok {
			t.Fatalf("ожидали отсутствие ключа, ok=%v err=%v", ok, err)
		}
	})

	t.Run("set_get_overwrite", func(t *testing.T) {
		if err := b.Set(ctx, 1002, "token", "a"); err != nil {
			t.Fatal(err)
		}
		if err := b.Set(ctx, 1002, "token", "b"); err != nil {
			t.Fatal(err)
		}
		v, ok, err := b.Get(ctx, 1002, "token")
		if err != nil || !ok || v != "b" {
			t.Fatalf("получили %q ok=%v err=%v", v, ok, err)
		}
	})

	t.Run("chats_isolated", func(t *testing.T) {
		if err := b.Set(ctx, 1003, "user", `{"id":1}`); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := b.Get(ctx, 1004, "user"); ok {
			t.Fatal("значение одного чата видно в другом")
		}
	})

	t.Run("remove_many", func(t *testing.T) {
		l := storage.For(b, 1005)
		_ = l.Set(ctx, "token", "t")
		_ = l.Set(ctx, "user", "u")
		_ = l.Set(ctx, "other", "o")
		if err := l.Remove(ctx, "token", "user"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := l.Get(ctx, "token"); ok {
			t.Fatal("token не удалён")
		}
		if _, ok, _ := l.Get(ctx, "user"); ok {
			t.Fatal("user не удалён")
		}
		if v, ok, _ := l.Get(ctx, "other"); !ok || v != "o" {
			t.Fatal("лишний ключ задет удалением")
		}
		// удаление отсутствующего — не ошибка
		if err := l.Remove(ctx, "nope"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := b.Ping(ctx); err != nil {
			t.Fatal(err)
		}
	})
}
