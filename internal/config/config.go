package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BotToken    string
	BotDebug    bool
	APIBaseURL  string
	APITimeout  time.Duration
	EmailDomain string
	Storage     string // file|postgres|redis|memory
	StorageDir  string
	DatabaseURL string
	RedisAddr   string
	Location    *time.Location
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Release     string
	FSMIdleTTL  time.Duration
	FSMGCEvery  time.Duration
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Asia/Colombo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	apiTimeout, err := durationEnv("API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	idleTTL, err := durationEnv("FSM_IDLE_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	gcEvery, err := durationEnv("FSM_GC_EVERY", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken:    mustEnv("BOT_TOKEN"),
		BotDebug:    boolEnv("BOT_DEBUG", false),
		APIBaseURL:  strings.TrimRight(getenv("CRICKET_API_URL", "http://localhost:8080/api"), "/"),
		APITimeout:  apiTimeout,
		EmailDomain: strings.ToLower(getenv("ALLOWED_EMAIL_DOMAIN", "@tec.rjt.ac.lk")),
		Storage:     strings.ToLower(getenv("STORAGE_BACKEND", "file")),
		StorageDir:  getenv("STORAGE_DIR", "data/chats"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		Location:    loc,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Release:     getenv("RELEASE", "dev"),
		FSMIdleTTL:  idleTTL,
		FSMGCEvery:  gcEvery,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case "file", "memory", "redis":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORAGE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND: unknown backend %q", c.Storage)
	}
	if !strings.HasPrefix(c.EmailDomain, "@") {
		c.EmailDomain = "@" + c.EmailDomain
	}
	return nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func boolEnv(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
