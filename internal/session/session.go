// Package session — идентичность пользователя чата и его токен.
// Единственный источник правды: local storage чата (ключи token и user).
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/storage"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

type Store struct {
	local *storage.Local
	log   *zap.Logger
}

func New(local *storage.Local, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{local: local, log: log}
}

func (s *Store) ChatID() int64 { return s.local.ChatID() }

// Set сохраняет пользователя и токен после логина.
func (s *Store) Set(ctx context.Context, user models.User, token string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := s.local.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("session: store token: %w", err)
	}
	if err := s.local.Set(ctx, KeyUser, string(raw)); err != nil {
		return fmt.Errorf("session: store user: %w", err)
	}
	return nil
}

// Get возвращает пользователя, если сессия есть и цела.
// Битые значения (пустые, "undefined", не-JSON, без роли, без токена) молча чистим.
func (s *Store) Get(ctx context.Context) (*models.User, bool) {
	rawUser, okUser, err := s.local.Get(ctx, KeyUser)
	if err != nil {
		s.log.Warn("session read failed", zap.Int64("chat_id", s.ChatID()), zap.Error(err))
		return nil, false
	}
	token, okToken, err := s.local.Get(ctx, KeyToken)
	if err != nil {
		s.log.Warn("session read failed", zap.Int64("chat_id", s.ChatID()), zap.Error(err))
		return nil, false
	}
	if !okUser && !okToken {
		return nil, false
	}

	u, ok := decodeUser(rawUser)
	if !ok || !okToken || isBlank(token) {
		s.log.Debug("corrupt session dropped", zap.Int64("chat_id", s.ChatID()))
		_ = s.Clear(ctx)
		return nil, false
	}
	return u, true
}

// Token — токен для заголовка Authorization; пусто, если не залогинен.
func (s *Store) Token(ctx context.Context) string {
	v, ok, err := s.local.Get(ctx, KeyToken)
	if err != nil || !ok || isBlank(v) {
		return ""
	}
	return v
}

func (s *Store) Clear(ctx context.Context) error {
	return s.local.Remove(ctx, KeyToken, KeyUser)
}

func isBlank(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "undefined" || v == "null"
}

func decodeUser(raw string) (*models.User, bool) {
	if isBlank(raw) {
		return nil, false
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, false
	}
	if u.Email == "" || u.Role == "" {
		return nil, false
	}
	return &u, true
}
