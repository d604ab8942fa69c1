package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized — бэкенд ответил 401. Сессия уже очищена, чат уже отправлен на логин,
	// вызывающему остаётся только тихо выйти.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNoSession — на эту дату тренировки нет.
	ErrNoSession = errors.New("api: no practice session for this date")
)

// Error — ошибка, которую вернул бэкенд (не 2xx и не 401).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: http %d", e.Status)
	}
	return fmt.Sprintf("api: http %d: %s", e.Status, e.Message)
}

// Message — текст для пользователя: сообщение бэкенда, если оно есть, иначе fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsSystem — ошибки, которые стоит слать в Sentry: 5xx и сетевые.
func IsSystem(err error) bool {
	if err == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoSession) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return true
}
