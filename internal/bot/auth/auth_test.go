package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat/chattest"
	"github.com/rusl-cricket/attendance-bot/internal/models"
)

var now = time.Date(2025, 3, 12, 10, 0, 0, 0, chattest.Colombo)

func backend(t *testing.T, h http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func text(id int, s string) *tgbotapi.Message {
	return &tgbotapi.Message{MessageID: id, Text: s}
}

func contains(texts []string, sub string) bool {
	for _, s := range texts {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestRegister_ForeignEmailRejectedLocally(t *testing.T) {
	srv, hits := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	e := chattest.New(9101, srv.URL, now)
	ctx := context.Background()

	StartRegister(ctx, e.Chat)
	HandleText(ctx, e.Chat, text(1, "someone@gmail.com"))

	st := registerStates.Get(e.Chat.ID)
	if st == nil || st.Step != StepRegEmail {
		t.Fatalf("должны остаться на шаге email: %+v", st)
	}
	if !contains(e.Bot.Texts(), "institutional address ending with @tec.rjt.ac.lk") {
		t.Fatalf("нет сообщения про домен: %q", e.Bot.Texts())
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Fatal("до сети дело дойти не должно")
	}
}

func TestRegister_FullFlow(t *testing.T) {
	var got models.RegisterRequest
	srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" || r.Method != http.MethodPost {
			t.Errorf("неожиданный запрос %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, "User registered successfully")
	})
	e := chattest.New(9102, srv.URL, now)
	ctx := context.Background()

	StartRegister(ctx, e.Chat)
	steps := []string{"Kamal@TEC.rjt.ac.lk", "secret1", "TG/2021/001", "Kamal Perera", "Technology", "0", "2"}
	for i, s := range steps {
		HandleText(ctx, e.Chat, text(i+1, s))
	}
	if st := registerStates.Get(e.Chat.ID); st == nil || st.Step != StepRegContact {
		t.Fatalf("ожидали шаг контакта: %+v", st)
	}
	if !contains(e.Bot.Texts(), "year must be 1 or greater") {
		t.Fatalf("год 0 должен быть отклонён: %q", e.Bot.Texts())
	}

	HandleCallback(ctx, e.Chat, &tgbotapi.CallbackQuery{ID: "cb", Data: cbSkip})

	if got.Email != "Kamal@TEC.rjt.ac.lk" || got.Year != 2 || got.StudentID != "TG/2021/001" || got.ContactNumber != "" {
		t.Fatalf("тело запроса: %+v", got)
	}
	if registerStates.Get(e.Chat.ID) != nil {
		t.Fatal("регистрация должна завершиться")
	}
	if loginStates.Get(e.Chat.ID) == nil {
		t.Fatal("после регистрации — экран логина")
	}
	if !contains(e.Bot.Texts(), "Registration successful! Please log in.") {
		t.Fatalf("нет тоста об успехе: %q", e.Bot.Texts())
	}
}

func TestLogin_Success(t *testing.T) {
	srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "coach@tec.rjt.ac.lk" || req.Password != "pw123456" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"token":"jwt-1","id":5,"email":"coach@tec.rjt.ac.lk","role":"COACH"}`)
	})
	e := chattest.New(9103, srv.URL, now)
	ctx := context.Background()

	if _, ok := Start(ctx, e.Chat); ok {
		t.Fatal("без сессии Start не должен пускать")
	}
	HandleText(ctx, e.Chat, text(10, "coach@tec.rjt.ac.lk"))
	u, ok := HandleText(ctx, e.Chat, text(11, "pw123456"))
	if !ok || u.Role != models.RoleCoach || u.ID != 5 {
		t.Fatalf("вход не состоялся: %+v", u)
	}

	stored, ok := e.Chat.Session.Get(ctx)
	if !ok || stored.Email != "coach@tec.rjt.ac.lk" {
		t.Fatalf("сессия не сохранена: %+v", stored)
	}
	if e.Chat.Session.Token(ctx) != "jwt-1" {
		t.Fatal("токен не сохранён")
	}
	if Active(e.Chat.ID) {
		t.Fatal("после входа сценарий логина закрыт")
	}
	deleted := false
	for _, s := range e.Bot.All() {
		if s.Kind == "delete" {
			deleted = true
		}
	}
	if !deleted {
		t.Fatal("сообщение с паролем нужно удалить")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, _ := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
	})
	e := chattest.New(9104, srv.URL, now)
	ctx := context.Background()

	StartLogin(ctx, e.Chat, "")
	HandleText(ctx, e.Chat, text(1, "coach@tec.rjt.ac.lk"))
	if _, ok := HandleText(ctx, e.Chat, text(2, "wrong")); ok {
		t.Fatal("вход не должен пройти")
	}
	if !contains(e.Bot.Texts(), "⚠️ Invalid credentials") {
		t.Fatalf("нет тоста с ошибкой: %q", e.Bot.Texts())
	}
	if _, ok := e.Chat.Session.Get(ctx); ok {
		t.Fatal("сессии быть не должно")
	}
	if len(e.Notices()) != 0 {
		t.Fatal("401 на логине не уводит на логин ещё раз")
	}
	if st := loginStates.Get(e.Chat.ID); st == nil || st.Step != StepLoginEmail {
		t.Fatalf("логин начинается заново: %+v", st)
	}
}

func TestLogout(t *testing.T) {
	e := chattest.New(9105, "http://127.0.0.1:1", now)
	ctx := context.Background()
	e.Login(t, models.User{ID: 1, Email: "a@tec.rjt.ac.lk", Role: models.RoleAdmin})

	Logout(ctx, e.Chat)

	if _, ok := e.Chat.Session.Get(ctx); ok {
		t.Fatal("сессия должна быть очищена")
	}
	if !contains(e.Bot.Texts(), "Logged out successfully") {
		t.Fatalf("нет тоста: %q", e.Bot.Texts())
	}
	if loginStates.Get(e.Chat.ID) == nil {
		t.Fatal("после выхода — экран логина")
	}
}

func TestCancelReturnsToLogin(t *testing.T) {
	e := chattest.New(9106, "http://127.0.0.1:1", now)
	ctx := context.Background()

	StartRegister(ctx, e.Chat)
	HandleText(ctx, e.Chat, text(1, "/cancel"))

	if registerStates.Get(e.Chat.ID) != nil {
		t.Fatal("регистрация должна быть отменена")
	}
	if st := loginStates.Get(e.Chat.ID); st == nil || st.Step != StepLoginEmail {
		t.Fatal("отмена ведёт на логин")
	}
}
