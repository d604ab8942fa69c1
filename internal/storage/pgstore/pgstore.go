// Package pgstore хранит local storage чатов в Postgres.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var FS embed.FS

type Store struct {
	db *sql.DB
}

// Open подключается через pgx и накатывает миграции.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New — обёртка над уже открытым соединением (тесты, общий пул).
func New(db *sql.DB) *Store { return &Store{db: db} }

func Migrate(db *sql.DB) error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, chatID int64, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM chat_storage WHERE chat_id = $1 AND key = $2`, chatID, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, chatID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_storage (chat_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chat_id, key) DO UPDATE SET value = excluded.value, updated_at = now()`,
		chatID, key, value)
	return err
}

func (s *Store) Remove(ctx context.Context, chatID int64, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ph := make([]string, len(keys))
	args := make([]any, 0, len(keys)+1)
	args = append(args, chatID)
	for i, k := range keys {
		ph[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, k)
	}
	q := `DELETE FROM chat_storage WHERE chat_id = $1 AND key IN (` + strings.Join(ph, ", ") + `)`
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }
