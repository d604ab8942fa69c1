package fsmutil

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/metrics"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
)

// pending — простая защита от повторной обработки "тяжёлых" действий (сохранение табеля, выгрузка).
// Ключ — chatID; значение — ключ действия (например "attendance:save" или "export:pdf").
var pending = struct {
	mu sync.Mutex
	m  map[int64]string
}{
	m: make(map[int64]string),
}

// SetPending помечает чат как "в обработке" для ключа key.
// Возвращает false, если уже что-то обрабатывается.
func SetPending(chatID int64, key string) bool {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if _, ok := pending.m[chatID]; ok {
		return false
	}
	pending.m[chatID] = key
	return true
}

// ClearPending снимает флаг, если ключ совпал.
func ClearPending(chatID int64, key string) {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if cur, ok := pending.m[chatID]; ok && cur == key {
		delete(pending.m, chatID)
	}
}

// DropPending снимает любой флаг чата (выход на логин).
func DropPending(chatID int64) {
	pending.mu.Lock()
	delete(pending.m, chatID)
	pending.mu.Unlock()
}

// DisableMarkup "гасит" inline-клавиатуру у сообщения (one-shot клавиатура).
func DisableMarkup(bot tg.Sender, chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0)}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
	if _, err := tg.Send(bot, edit); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// BackCancelRow — готовая строка с кнопками "Back" и "Cancel".
func BackCancelRow(backData, cancelData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", backData),
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancelData),
	)
}

// IsCancelText — "текстовая" отмена на шагах ввода: "cancel", "/cancel" (регистр/пробелы игнорим).
func IsCancelText(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "cancel" || s == "/cancel" || s == "❌ cancel"
}

// Truncate обрезает подпись кнопки, Telegram не любит длинные.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
