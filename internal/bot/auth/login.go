package auth

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rusl-cricket/attendance-bot/internal/bot/menu"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
)

type LoginStep string

const (
	StepLoginEmail    LoginStep = "login_email"
	StepLoginPassword LoginStep = "login_password"
)

type loginState struct {
	Step  LoginStep
	Email string
}

var loginStates = fsmutil.NewStates[loginState]()

const (
	cbRegister = "auth_register"
	cbLogin    = "auth_login"
	cbSkip     = "auth_skip"
	cbCancel   = "auth_cancel"
)

// IsCallback — колбэки экранов входа и регистрации.
func IsCallback(data string) bool { return strings.HasPrefix(data, "auth_") }

// Active — в чате идёт вход или регистрация.
func Active(chatID int64) bool {
	return loginStates.Get(chatID) != nil || registerStates.Get(chatID) != nil
}

// Start — /start: с живой сессией показываем меню, иначе просим войти.
func Start(ctx context.Context, c *chat.Chat) (*models.User, bool) {
	if u, ok := c.Session.Get(ctx); ok {
		c.Menu("👋 Welcome back, <b>"+escape(u.Email)+"</b> ("+u.Role.Title()+").", menu.GetRoleMenu(u.Role))
		return u, true
	}
	StartLogin(ctx, c, "")
	return nil, false
}

// StartLogin — экран логина. notice показывается первым сообщением (например, «сессия истекла»).
// Клавиатура меню снимается.
func StartLogin(_ context.Context, c *chat.Chat, notice string) {
	loginStates.Delete(c.ID)
	registerStates.Delete(c.ID)
	loginStates.Set(c.ID, &loginState{Step: StepLoginEmail})

	if notice == "" {
		notice = "🏏 <b>RUSL Cricket Attendance</b>"
	}
	c.HTML(notice, tgbotapi.NewRemoveKeyboard(true))
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📝 Register as a student", cbRegister),
	))
	c.HTML("Sign in with your university email.\nEnter your email:", kb)
}

func handleLoginText(ctx context.Context, c *chat.Chat, st *loginState, msg *tgbotapi.Message) (*models.User, bool) {
	text := strings.TrimSpace(msg.Text)
	switch st.Step {
	case StepLoginEmail:
		if err := c.Validate.Var("email", text, "required,email"); err != nil {
			c.Say("⚠️ " + firstError(err) + "\nEnter your email:")
			return nil, false
		}
		st.Email = text
		st.Step = StepLoginPassword
		c.Say("Enter your password (the message will be deleted):")
		return nil, false

	case StepLoginPassword:
		// пароль в истории чата не оставляем
		_ = tg.Delete(c.Bot, c.ID, msg.MessageID)
		if text == "" {
			c.Say("⚠️ password is required\nEnter your password:")
			return nil, false
		}
		return login(ctx, c, st.Email, text)
	}
	return nil, false
}

func login(ctx context.Context, c *chat.Chat, email, password string) (*models.User, bool) {
	if !fsmutil.SetPending(c.ID, "auth:login") {
		c.Say("⏳ Signing in…")
		return nil, false
	}
	defer fsmutil.ClearPending(c.ID, "auth:login")

	resp, err := c.API.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err == nil && (resp.Token == "" || !resp.Role.Valid()) {
		err = errBadLoginResponse
	}
	if err != nil {
		c.Fail(ctx, err, "Login failed. Please check your credentials.")
		StartLogin(ctx, c, "")
		return nil, false
	}
	u := resp.User()
	if err := c.Session.Set(ctx, u, resp.Token); err != nil {
		c.Fail(ctx, err, "Login failed. Please try again.")
		StartLogin(ctx, c, "")
		return nil, false
	}
	loginStates.Delete(c.ID)
	c.Menu("✅ Login successful! Signed in as <b>"+escape(u.Email)+"</b> ("+u.Role.Title()+").", menu.GetRoleMenu(u.Role))
	return &u, true
}

// Logout очищает сессию и возвращает на логин.
func Logout(ctx context.Context, c *chat.Chat) {
	if err := c.Session.Clear(ctx); err != nil {
		c.Logger(ctx).Warn("logout: clear session failed", zap.Error(err))
	}
	fsmutil.DropChat(c.ID)
	StartLogin(ctx, c, "👋 Logged out successfully")
}

// HandleText — шаг входа или регистрации. Возвращает пользователя, если вход состоялся.
func HandleText(ctx context.Context, c *chat.Chat, msg *tgbotapi.Message) (*models.User, bool) {
	if fsmutil.IsCancelText(msg.Text) {
		cancel(ctx, c)
		return nil, false
	}
	if st := registerStates.Get(c.ID); st != nil {
		handleRegisterText(ctx, c, st, msg)
		return nil, false
	}
	if st := loginStates.Get(c.ID); st != nil {
		return handleLoginText(ctx, c, st, msg)
	}
	return nil, false
}

func HandleCallback(ctx context.Context, c *chat.Chat, cb *tgbotapi.CallbackQuery) {
	tg.Answer(c.Bot, cb.ID, "")
	switch cb.Data {
	case cbRegister:
		if cb.Message != nil {
			fsmutil.DisableMarkup(c.Bot, c.ID, cb.Message.MessageID)
		}
		StartRegister(ctx, c)
	case cbLogin, cbCancel:
		cancel(ctx, c)
	case cbSkip:
		if st := registerStates.Get(c.ID); st != nil && st.Step == StepRegContact {
			if cb.Message != nil {
				fsmutil.DisableMarkup(c.Bot, c.ID, cb.Message.MessageID)
			}
			submitRegister(ctx, c, st)
		}
	}
}

// cancel — из входа и регистрации отмена ведёт на начало логина.
func cancel(ctx context.Context, c *chat.Chat) {
	StartLogin(ctx, c, "❌ Cancelled")
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
