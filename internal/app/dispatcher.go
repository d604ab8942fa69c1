package app

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rusl-cricket/attendance-bot/internal/bot/auth"
	"github.com/rusl-cricket/attendance-bot/internal/bot/handlers"
	"github.com/rusl-cricket/attendance-bot/internal/bot/menu"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
	"github.com/rusl-cricket/attendance-bot/internal/ctxutil"
	"github.com/rusl-cricket/attendance-bot/internal/metrics"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/observability"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
)

// команды-синонимы пунктов меню
var commandScreens = map[string]menu.Screen{
	"/dashboard":  menu.Dashboard,
	"/students":   menu.Students,
	"/attendance": menu.Attendance,
	"/reports":    menu.Reports,
}

// Dispatch ставит апдейт в очередь его чата. Апдейты одного чата обрабатываются
// в порядке прихода, поэтому Dispatch вызывается из цикла приёма, без go.
func (a *App) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	chatID := chatOf(upd)
	if chatID == 0 {
		return
	}
	a.queue.Enqueue(chatID, func() { a.HandleUpdate(ctx, upd) })
}

// Wait дожидается обработки всех принятых апдейтов.
func (a *App) Wait() {
	a.queue.Wait()
}

// HandleUpdate — один апдейт Telegram, синхронно.
func (a *App) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	chatID := chatOf(upd)
	if chatID == 0 {
		return
	}
	metrics.BotUpdates.Inc()

	ctx = ctxutil.WithChatID(ctx, chatID)
	ctx, cancel := ctxutil.WithTimeout(ctx, ctxutil.DefaultUpdateTimeout)
	defer cancel()
	defer observability.RecoverPanic(ctx, "update")

	c := a.chatFor(chatID)
	switch {
	case upd.CallbackQuery != nil:
		a.handleCallback(ctx, c, upd.CallbackQuery)
	case upd.Message != nil:
		a.handleMessage(ctx, c, upd.Message)
	}
}

func chatOf(upd tgbotapi.Update) int64 {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		return upd.CallbackQuery.Message.Chat.ID
	case upd.Message != nil && upd.Message.Chat != nil:
		return upd.Message.Chat.ID
	}
	return 0
}

func (a *App) handleMessage(ctx context.Context, c *chat.Chat, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	switch text {
	case "/start":
		fsmutil.DropChat(c.ID)
		if u, ok := auth.Start(ctx, c); ok {
			handlers.ShowDashboard(ctx, c, u)
		}
		return
	case "/logout":
		auth.Logout(ctx, c)
		return
	}

	// логин и регистрация работают без сессии
	if auth.Active(c.ID) {
		if u, ok := auth.HandleText(ctx, c, msg); ok {
			handlers.ShowDashboard(ctx, c, u)
		}
		return
	}

	u, ok := c.User(ctx)
	if !ok {
		return
	}
	ctx = ctxutil.WithUserID(ctx, u.ID)

	screen, isScreen := menu.ScreenByLabel(text)
	if !isScreen {
		screen, isScreen = commandScreens[text]
	}
	if isScreen {
		a.openScreen(ctx, c, u, screen)
		return
	}

	if fsmutil.IsCancelText(text) {
		fsmutil.DropChat(c.ID)
		c.Menu("❌ Cancelled.", menu.GetRoleMenu(u.Role))
		return
	}

	if handlers.HandleText(ctx, c, u, msg) {
		return
	}
	c.Menu("⚠️ Unknown command. Use the menu below.", menu.GetRoleMenu(u.Role))
}

func (a *App) openScreen(ctx context.Context, c *chat.Chat, u *models.User, screen menu.Screen) {
	if screen == menu.Logout {
		auth.Logout(ctx, c)
		return
	}
	ctx = ctxutil.WithOp(ctx, string(screen))
	if !menu.Allowed(u.Role, screen) {
		c.Logger(ctx).Info("screen denied", zap.String("screen", string(screen)), zap.String("role", string(u.Role)))
		c.Menu("⛔ This section is not available for your role.", menu.GetRoleMenu(u.Role))
		return
	}
	handlers.Open(ctx, c, u, screen)
}

func (a *App) handleCallback(ctx context.Context, c *chat.Chat, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	c.Logger(ctx).Debug("callback", zap.String("data", data), zap.Int("msg_id", cb.Message.MessageID))

	if auth.IsCallback(data) {
		auth.HandleCallback(ctx, c, cb)
		return
	}

	u, ok := c.User(ctx)
	if !ok {
		// чтобы Telegram снял «часики» с кнопки
		tg.Answer(c.Bot, cb.ID, "")
		return
	}
	ctx = ctxutil.WithUserID(ctx, u.ID)

	screen := handlers.ScreenOf(data)
	switch {
	case screen == "":
		tg.Answer(c.Bot, cb.ID, "Unknown action")
	case !menu.Allowed(u.Role, screen):
		tg.Answer(c.Bot, cb.ID, "Not available for your role")
	default:
		handlers.HandleCallback(ctxutil.WithOp(ctx, string(screen)), c, u, cb)
	}
}
