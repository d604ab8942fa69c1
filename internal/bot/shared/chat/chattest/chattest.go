// Package chattest собирает chat.Chat поверх записывающего бота и памяти вместо хранилища.
package chattest

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rusl-cricket/attendance-bot/internal/api"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/session"
	"github.com/rusl-cricket/attendance-bot/internal/storage"
	"github.com/rusl-cricket/attendance-bot/internal/tg/tgtest"
	"github.com/rusl-cricket/attendance-bot/internal/validate"
)

// Domain — суффикс почты в тестах.
const Domain = "@tec.rjt.ac.lk"

var Colombo = time.FixedZone("LKT", 5*3600+1800)

type Env struct {
	Chat  *chat.Chat
	Bot   *tgtest.Recorder
	Store *storage.Memory

	mu      sync.Mutex
	notices []string
}

// New — чат chatID, бэкенд по apiURL, часы остановлены на now.
func New(chatID int64, apiURL string, now time.Time) *Env {
	e := &Env{Bot: &tgtest.Recorder{}, Store: storage.NewMemory()}
	sess := session.New(storage.For(e.Store, chatID), nil)
	c := &chat.Chat{
		ID:       chatID,
		Bot:      e.Bot,
		Session:  sess,
		Validate: validate.New(Domain),
		Loc:      Colombo,
		Now:      func() time.Time { return now },
	}
	c.ToLogin = func(_ context.Context, notice string) {
		fsmutil.DropChat(chatID)
		e.mu.Lock()
		e.notices = append(e.notices, notice)
		e.mu.Unlock()
	}
	c.API = api.New(apiURL, http.DefaultClient, sess,
		api.OnUnauthorized(func(ctx context.Context) { c.ToLogin(ctx, "expired") }),
	)
	e.Chat = c
	return e
}

// Login кладёт сессию, как после успешного входа.
func (e *Env) Login(t *testing.T, u models.User) {
	t.Helper()
	if err := e.Chat.Session.Set(context.Background(), u, "tok-"+string(u.Role)); err != nil {
		t.Fatal(err)
	}
}

// Notices — сколько раз и с чем чат уводили на логин.
func (e *Env) Notices() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.notices...)
}
