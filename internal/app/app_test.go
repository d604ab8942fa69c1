package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rusl-cricket/attendance-bot/internal/config"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/session"
	"github.com/rusl-cricket/attendance-bot/internal/storage"
	"github.com/rusl-cricket/attendance-bot/internal/tg/tgtest"
)

type harness struct {
	app   *App
	bot   *tgtest.Recorder
	store *storage.Memory
}

func newHarness(t *testing.T, h http.HandlerFunc) *harness {
	t.Helper()
	return newHarnessWithLog(t, h, nil)
}

func newHarnessWithLog(t *testing.T, h http.HandlerFunc, log *zap.Logger) *harness {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL:  srv.URL,
		APITimeout:  5 * time.Second,
		EmailDomain: "@tec.rjt.ac.lk",
		Location:    time.UTC,
	}
	bot := &tgtest.Recorder{}
	store := storage.NewMemory()
	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	return &harness{
		app:   New(bot, store, cfg, log, WithClock(func() time.Time { return now })),
		bot:   bot,
		store: store,
	}
}

func (h *harness) say(chatID int64, text string) {
	h.app.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}})
}

func (h *harness) press(chatID int64, data string) {
	h.app.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: chatID}},
	}})
}

func (h *harness) login(t *testing.T, chatID int64, role models.Role) {
	t.Helper()
	s := session.New(storage.For(h.store, chatID), nil)
	if err := s.Set(context.Background(), models.User{ID: chatID, Email: "u@tec.rjt.ac.lk", Role: role}, "tok"); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) session(chatID int64) (*models.User, bool) {
	return session.New(storage.For(h.store, chatID), nil).Get(context.Background())
}

func (h *harness) saw(sub string) bool {
	for _, s := range h.bot.Texts() {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginFlowShowsDashboard(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = io.WriteString(w, `{"token":"jwt","id":3,"email":"coach@tec.rjt.ac.lk","role":"COACH"}`)
		case "/reports/dashboard":
			writeJSON(w, models.DashboardStats{TotalPracticeDays: 4, TotalPlayers: 9})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	const chatID = 8001

	h.say(chatID, "/start")
	if !h.saw("Enter your email") {
		t.Fatalf("без сессии — экран логина: %q", h.bot.Texts())
	}
	h.say(chatID, "coach@tec.rjt.ac.lk")
	h.say(chatID, "secret")

	u, ok := h.session(chatID)
	if !ok || u.Role != models.RoleCoach {
		t.Fatalf("сессия: %+v", u)
	}
	if !h.saw("Total practice days: <b>4</b>") {
		t.Fatalf("после входа — панель: %q", h.bot.Texts())
	}
}

func TestDispatchKeepsChatOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		form []string
	)
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/register":
			var req models.RegisterRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			mu.Lock()
			form = []string{req.Email, req.Password, req.StudentID, req.Name, req.Faculty}
			mu.Unlock()
			_, _ = io.WriteString(w, "User registered successfully")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	const chatID = 8007
	msg := func(text string) tgbotapi.Update {
		return tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}, Text: text}}
	}

	h.say(chatID, "/start")
	h.press(chatID, "auth_register")
	ctx := context.Background()
	for _, s := range []string{"kamal@tec.rjt.ac.lk", "secret1", "TG/2021/001", "Kamal Perera", "Technology", "2"} {
		h.app.Dispatch(ctx, msg(s))
	}
	h.app.Dispatch(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    "auth_skip",
		Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: chatID}},
	}})
	h.app.Wait()

	mu.Lock()
	defer mu.Unlock()
	want := []string{"kamal@tec.rjt.ac.lk", "secret1", "TG/2021/001", "Kamal Perera", "Technology"}
	if strings.Join(form, "|") != strings.Join(want, "|") {
		t.Fatalf("шаги формы перепутаны: %q", form)
	}
}

func TestGuardWithoutSession(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("бэкенд не должен вызываться: %s", r.URL.Path)
	})
	const chatID = 8002

	h.say(chatID, "👥 Students")
	if !h.saw("Enter your email") {
		t.Fatalf("без сессии — на логин: %q", h.bot.Texts())
	}
}

func TestRoleGuard(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("бэкенд не должен вызываться: %s", r.URL.Path)
	})
	const chatID = 8003
	h.login(t, chatID, models.RoleStudent)

	h.say(chatID, "📈 Reports")
	if !h.saw("not available for your role") {
		t.Fatalf("студенту отчёты закрыты: %q", h.bot.Texts())
	}

	h.bot.Reset()
	h.press(chatID, "rep_refresh")
	last := h.bot.Last()
	if last.Kind != "callback" || last.Text != "Not available for your role" {
		t.Fatalf("колбэк чужого экрана: %+v", last)
	}
}

func TestUnauthorizedNavigatesToLogin(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	const chatID = 8004
	h.login(t, chatID, models.RoleCoach)

	h.say(chatID, "👥 Students")

	if _, ok := h.session(chatID); ok {
		t.Fatal("после 401 сессии нет")
	}
	if !h.saw(SessionExpired) {
		t.Fatalf("нет сообщения об истёкшей сессии: %q", h.bot.Texts())
	}
	removed := false
	for _, s := range h.bot.All() {
		if _, ok := s.Markup.(tgbotapi.ReplyKeyboardRemove); ok {
			removed = true
		}
	}
	if !removed {
		t.Fatal("клавиатура меню должна сниматься")
	}
	if h.saw("⚠️") {
		t.Fatalf("401 без тоста: %q", h.bot.Texts())
	}
}

func TestScreenLogsCarryOp(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newHarnessWithLog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, zap.New(core))
	const chatID = 8008
	h.login(t, chatID, models.RoleCoach)

	h.say(chatID, "👥 Students")

	for _, msg := range []string{"backend call failed", "api request"} {
		entries := logs.FilterMessage(msg).All()
		if len(entries) == 0 {
			t.Fatalf("нет записи %q", msg)
		}
		fields := entries[0].ContextMap()
		if fields["op"] != "students" || fields["chat_id"] != int64(chatID) {
			t.Fatalf("%q без op/chat_id: %v", msg, fields)
		}
	}
}

func TestUnknownTextShowsMenu(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	const chatID = 8005
	h.login(t, chatID, models.RoleAdmin)

	h.say(chatID, "hello")
	last := h.bot.Last()
	if !strings.Contains(last.Text, "Unknown command") {
		t.Fatalf("неизвестная команда: %+v", last)
	}
	if _, ok := last.Markup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Fatal("к подсказке прикладывается меню роли")
	}
}

func TestLogoutLabel(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	const chatID = 8006
	h.login(t, chatID, models.RoleCoach)

	h.say(chatID, "🚪 Logout")
	if _, ok := h.session(chatID); ok {
		t.Fatal("выход очищает сессию")
	}
	if !h.saw("Logged out successfully") {
		t.Fatalf("нет тоста: %q", h.bot.Texts())
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(healthHandler(storage.NewMemory()))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("статус %d", resp.StatusCode)
	}
}
