package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rusl-cricket/attendance-bot/internal/app"
	"github.com/rusl-cricket/attendance-bot/internal/config"
	"github.com/rusl-cricket/attendance-bot/internal/jobs"
	"github.com/rusl-cricket/attendance-bot/internal/logging"
	"github.com/rusl-cricket/attendance-bot/internal/observability"
	"github.com/rusl-cricket/attendance-bot/internal/storage"
	"github.com/rusl-cricket/attendance-bot/internal/storage/filestore"
	"github.com/rusl-cricket/attendance-bot/internal/storage/pgstore"
	"github.com/rusl-cricket/attendance-bot/internal/storage/redisstore"
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("storage init failed", zap.String("backend", cfg.Storage), zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("telegram init failed", zap.Error(err))
	}
	bot.Debug = cfg.BotDebug
	logger.Info("bot started",
		zap.String("username", bot.Self.UserName),
		zap.String("api", cfg.APIBaseURL),
		zap.String("storage", cfg.Storage),
	)

	a := app.New(bot, store, cfg, logger)

	jobs.New(ctx).Every(cfg.FSMGCEvery, "fsm_gc", jobs.FSMGC(cfg.FSMIdleTTL, logger))
	app.StartHTTP(ctx, cfg.HTTPAddr, store)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			logger.Info("shutting down")
			a.Wait()
			return
		case upd, ok := <-updates:
			if !ok {
				a.Wait()
				return
			}
			a.Dispatch(ctx, upd)
		}
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage {
	case "file":
		s, err := filestore.Open(cfg.StorageDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s := redisstore.New(cfg.RedisAddr)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "memory":
		return storage.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}
