// Package tgtest — записывающий Sender для тестов экранов.
package tgtest

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sent — одно исходящее действие бота в упрощённом виде.
type Sent struct {
	Kind      string // message|edit|document|callback|delete|other
	ChatID    int64
	Text      string
	Markup    any
	FileName  string
	FileBytes []byte
}

type Recorder struct {
	mu     sync.Mutex
	sent   []Sent
	nextID int
}

func (r *Recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.sent = append(r.sent, describe(c))
	return tgbotapi.Message{MessageID: r.nextID}, nil
}

func (r *Recorder) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, describe(c))
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func describe(c tgbotapi.Chattable) Sent {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		return Sent{Kind: "message", ChatID: m.ChatID, Text: m.Text, Markup: m.ReplyMarkup}
	case tgbotapi.EditMessageTextConfig:
		var markup any
		if m.ReplyMarkup != nil {
			markup = *m.ReplyMarkup
		}
		return Sent{Kind: "edit", ChatID: m.ChatID, Text: m.Text, Markup: markup}
	case tgbotapi.EditMessageReplyMarkupConfig:
		var markup any
		if m.ReplyMarkup != nil {
			markup = *m.ReplyMarkup
		}
		return Sent{Kind: "edit", ChatID: m.ChatID, Markup: markup}
	case tgbotapi.DocumentConfig:
		s := Sent{Kind: "document", ChatID: m.ChatID, Text: m.Caption}
		if fb, ok := m.File.(tgbotapi.FileBytes); ok {
			s.FileName, s.FileBytes = fb.Name, fb.Bytes
		}
		return s
	case tgbotapi.CallbackConfig:
		return Sent{Kind: "callback", Text: m.Text}
	case tgbotapi.DeleteMessageConfig:
		return Sent{Kind: "delete", ChatID: m.ChatID}
	}
	return Sent{Kind: "other"}
}

// All — копия всего отправленного.
func (r *Recorder) All() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Last — последнее отправленное (нулевое значение, если ничего).
func (r *Recorder) Last() Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Sent{}
	}
	return r.sent[len(r.sent)-1]
}

// Texts — тексты сообщений и правок по порядку.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent {
		if s.Kind == "message" || s.Kind == "edit" {
			out = append(out, s.Text)
		}
	}
	return out
}

func (r *Recorder) Documents() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sent
	for _, s := range r.sent {
		if s.Kind == "document" {
			out = append(out, s)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}
