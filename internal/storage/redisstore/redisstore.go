// Package redisstore хранит local storage чатов в Redis: один hash на чат.
package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cricketbot:chat:"

type Store struct {
	Client *redis.Client
}

// New подключается к redis с короткими таймаутами.
func New(addr string) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Store{Client: client}
}

func hashKey(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

func (s *Store) Get(ctx context.Context, chatID int64, key string) (string, bool, error) {
	v, err := s.Client.HGet(ctx, hashKey(chatID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, chatID int64, key, value string) error {
	return s.Client.HSet(ctx, hashKey(chatID), key, value).Err()
}

func (s *Store) Remove(ctx context.Context, chatID int64, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.Client.HDel(ctx, hashKey(chatID), keys...).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.Client.Close() }
