package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CRICKET_API_URL", "http://backend:8080/api/")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("ALLOWED_EMAIL_DOMAIN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://backend:8080/api" {
		t.Fatalf("хвостовой слэш не срезан: %q", cfg.APIBaseURL)
	}
	if cfg.Storage != "file" {
		t.Fatalf("ожидали file, получили %q", cfg.Storage)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("API_TIMEOUT по умолчанию: %v", cfg.APITimeout)
	}
	if cfg.EmailDomain != "@tec.rjt.ac.lk" {
		t.Fatalf("домен по умолчанию: %q", cfg.EmailDomain)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("postgres_without_dsn", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "123:abc")
		t.Setenv("STORAGE_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку: нет DATABASE_URL")
		}
	})

	t.Run("bad_duration", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "123:abc")
		t.Setenv("STORAGE_BACKEND", "memory")
		t.Setenv("API_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку разбора API_TIMEOUT")
		}
	})

	t.Run("domain_without_at", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "123:abc")
		t.Setenv("STORAGE_BACKEND", "memory")
		t.Setenv("API_TIMEOUT", "")
		t.Setenv("ALLOWED_EMAIL_DOMAIN", "Uni.Example.LK")
		cfg, err := Load()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.EmailDomain != "@uni.example.lk" {
			t.Fatalf("получили %q", cfg.EmailDomain)
		}
	})
}
