package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rusl-cricket/attendance-bot/internal/api"
	"github.com/rusl-cricket/attendance-bot/internal/session"
	"github.com/rusl-cricket/attendance-bot/internal/storage"
	"github.com/rusl-cricket/attendance-bot/internal/tg/tgtest"
)

func newChat() (*Chat, *tgtest.Recorder) {
	bot := &tgtest.Recorder{}
	return &Chat{
		ID:      77,
		Bot:     bot,
		Session: session.New(storage.For(storage.NewMemory(), 77), nil),
	}, bot
}

func TestFail(t *testing.T) {
	ctx := context.Background()

	t.Run("401 молча", func(t *testing.T) {
		c, bot := newChat()
		if !c.Fail(ctx, api.ErrUnauthorized, "x") {
			t.Fatal("после 401 экран дальше не рисуем")
		}
		if len(bot.All()) != 0 {
			t.Fatal("401 не показывается")
		}
	})

	t.Run("сообщение бэкенда", func(t *testing.T) {
		c, bot := newChat()
		if c.Fail(ctx, &api.Error{Status: 400, Message: "Student ID already exists"}, "Failed to save student") {
			t.Fatal("обычная ошибка не уводит с экрана")
		}
		if got := bot.Last().Text; got != "⚠️ Student ID already exists" {
			t.Fatalf("тост: %q", got)
		}
	})

	t.Run("запасной текст", func(t *testing.T) {
		c, bot := newChat()
		c.Fail(ctx, errors.New("dial tcp: refused"), "Failed to load students")
		if got := bot.Last().Text; got != "⚠️ Failed to load students" {
			t.Fatalf("тост: %q", got)
		}
	})
}

func TestUserGuard(t *testing.T) {
	c, _ := newChat()
	var notices []string
	c.ToLogin = func(_ context.Context, n string) { notices = append(notices, n) }

	if _, ok := c.User(context.Background()); ok {
		t.Fatal("без сессии пользователя нет")
	}
	if len(notices) != 1 {
		t.Fatal("без сессии — переход на логин")
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("LKT", 5*3600+1800)
	c := &Chat{Loc: loc, Now: func() time.Time { return time.Date(2025, 3, 11, 20, 0, 0, 0, time.UTC) }}
	if got := c.Today().Format("2006-01-02"); got != "2025-03-12" {
		t.Fatalf("день в часовом поясе клуба: %s", got)
	}
}
