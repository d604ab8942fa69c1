package tg

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/observability"
)

// Sender — то, что нужно экранам от *tgbotapi.BotAPI. В тестах подменяется записывающим фейком.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Считаем системными: 5xx, 429, timeout. 400-ки и типичные телеграм-валидации в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr.Code == 429 || tgErr.Code >= 500
	}
	s := err.Error()
	if strings.Contains(s, "Bad Request") ||
		strings.Contains(s, "message is not modified") ||
		strings.Contains(s, "chat not found") ||
		strings.Contains(s, "can't parse entities") {
		return false
	}
	return strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout")
}

func Send(bot Sender, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

func Request(bot Sender, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r, err := bot.Request(req)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return r, err
}

// Text — короткое сообщение («тост»).
func Text(bot Sender, chatID int64, text string) (tgbotapi.Message, error) {
	return Send(bot, tgbotapi.NewMessage(chatID, text))
}

// HTML — сообщение с HTML-разметкой и (необязательной) клавиатурой.
func HTML(bot Sender, chatID int64, text string, markup any) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return Send(bot, msg)
}

// EditHTML перерисовывает сообщение с inline-клавиатурой.
func EditHTML(bot Sender, chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = kb
	_, err := Send(bot, edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// Document отправляет файл в чат.
func Document(bot Sender, chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	_, err := Send(bot, doc)
	return err
}

// Answer гасит «часики» на inline-кнопке; text показывается как всплывающее уведомление.
func Answer(bot Sender, callbackID, text string) {
	_, _ = Request(bot, tgbotapi.NewCallback(callbackID, text))
}

// Delete удаляет сообщение (например, с паролем).
func Delete(bot Sender, chatID int64, messageID int) error {
	_, err := Request(bot, tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}
