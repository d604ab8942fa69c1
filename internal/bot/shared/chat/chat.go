// Package chat — всё, что нужно экрану для работы с одним чатом.
package chat

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rusl-cricket/attendance-bot/internal/api"
	"github.com/rusl-cricket/attendance-bot/internal/logging"
	"github.com/rusl-cricket/attendance-bot/internal/metrics"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/observability"
	"github.com/rusl-cricket/attendance-bot/internal/session"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
	"github.com/rusl-cricket/attendance-bot/internal/validate"
)

type Chat struct {
	ID       int64
	Bot      tg.Sender
	Session  *session.Store
	API      *api.Client
	Validate *validate.Validator
	Loc      *time.Location
	Now      func() time.Time
	Log      *zap.Logger

	// ToLogin — переход на логин: сброс экранов чата, снятие клавиатуры, вход.
	ToLogin func(ctx context.Context, notice string)
}

// Today — текущий момент в часовом поясе бота.
func (c *Chat) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Say — короткое сообщение без разметки.
func (c *Chat) Say(text string) {
	if _, err := tg.Text(c.Bot, c.ID, text); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// HTML отправляет сообщение и возвращает его id (0 при ошибке).
func (c *Chat) HTML(text string, markup any) int {
	m, err := tg.HTML(c.Bot, c.ID, text, markup)
	if err != nil {
		metrics.HandlerErrors.Inc()
		return 0
	}
	return m.MessageID
}

// Edit перерисовывает сообщение экрана; если не вышло, шлёт новое.
func (c *Chat) Edit(messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) int {
	if messageID != 0 {
		if err := tg.EditHTML(c.Bot, c.ID, messageID, text, kb); err == nil {
			return messageID
		}
	}
	if kb == nil {
		return c.HTML(text, nil)
	}
	return c.HTML(text, *kb)
}

// Menu показывает главное меню роли.
func (c *Chat) Menu(text string, kb tgbotapi.ReplyKeyboardMarkup) {
	c.HTML(text, kb)
}

// Fail — единая обработка ошибки экрана.
// 401 уже увёл чат на логин, поэтому молчим и возвращаем true: экран дальше не рисуем.
// Остальное — тост с текстом бэкенда или fallback.
func (c *Chat) Fail(ctx context.Context, err error, fallback string) (gone bool) {
	if err == nil {
		return false
	}
	if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return true
	}
	metrics.HandlerErrors.Inc()
	if api.IsSystem(err) {
		observability.CaptureCtx(ctx, err)
		c.Logger(ctx).Warn("backend call failed", zap.Error(err))
	} else {
		c.Logger(ctx).Debug("backend rejected request", zap.Error(err))
	}
	c.Say("⚠️ " + api.Message(err, fallback))
	return false
}

// User — охрана маршрута: без сессии чат уходит на логин.
func (c *Chat) User(ctx context.Context) (*models.User, bool) {
	u, ok := c.Session.Get(ctx)
	if !ok {
		if c.ToLogin != nil {
			c.ToLogin(ctx, "")
		}
		return nil, false
	}
	return u, true
}

// Logger — логгер чата с полями chat_id и op из ctx.
func (c *Chat) Logger(ctx context.Context) *zap.Logger {
	return logging.With(ctx, c.Log)
}
