package app

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rusl-cricket/attendance-bot/internal/api"
	"github.com/rusl-cricket/attendance-bot/internal/bot/auth"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
	"github.com/rusl-cricket/attendance-bot/internal/config"
	"github.com/rusl-cricket/attendance-bot/internal/session"
	"github.com/rusl-cricket/attendance-bot/internal/storage"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
	"github.com/rusl-cricket/attendance-bot/internal/validate"
)

// SessionExpired — первое сообщение после 401 от бэкенда.
const SessionExpired = "🔒 Your session has expired. Please log in again."

// App — всё общее для обработки апдейтов: бот, хранилище чатов, HTTP-клиент бэкенда.
type App struct {
	bot      tg.Sender
	store    storage.Backend
	apiURL   string
	http     *http.Client
	validate *validate.Validator
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
	queue    *ChatQueue
}

type Option func(*App)

// WithClock подменяет часы (тесты).
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithHTTPClient подменяет клиент бэкенда (тесты, httptest).
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) { a.http = hc }
}

func New(bot tg.Sender, store storage.Backend, cfg *config.Config, log *zap.Logger, opts ...Option) *App {
	if log == nil {
		log = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	a := &App{
		bot:      bot,
		store:    store,
		apiURL:   cfg.APIBaseURL,
		http:     &http.Client{Timeout: cfg.APITimeout},
		validate: validate.New(cfg.EmailDomain),
		loc:      loc,
		now:      time.Now,
		log:      log,
		queue:    NewChatQueue(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// chatFor собирает контекст экрана для одного чата: своя сессия, свой API-клиент.
func (a *App) chatFor(chatID int64) *chat.Chat {
	sess := session.New(storage.For(a.store, chatID), a.log)
	c := &chat.Chat{
		ID:       chatID,
		Bot:      a.bot,
		Session:  sess,
		Validate: a.validate,
		Loc:      a.loc,
		Now:      a.now,
		Log:      a.log,
	}
	c.ToLogin = func(ctx context.Context, notice string) { toLogin(ctx, c, notice) }
	c.API = api.New(a.apiURL, a.http, sess,
		api.WithLogger(a.log),
		api.OnUnauthorized(func(ctx context.Context) { toLogin(ctx, c, SessionExpired) }),
	)
	return c
}

// toLogin — навигация на логин: экраны чата сбрасываются, меню снимается.
func toLogin(ctx context.Context, c *chat.Chat, notice string) {
	fsmutil.DropChat(c.ID)
	auth.StartLogin(ctx, c, notice)
}
