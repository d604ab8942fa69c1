package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/rusl-cricket/attendance-bot/internal/ctxutil"
)

func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureCtx — то же, но с тегами чата и операции из контекста.
func CaptureCtx(ctx context.Context, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		if id, ok := ctxutil.ChatID(ctx); ok {
			scope.SetTag("chat_id", strconv.FormatInt(id, 10))
		}
		if op, ok := ctxutil.Op(ctx); ok {
			scope.SetTag("op", op)
		}
		sentry.CaptureException(err)
	})
}

// RecoverPanic — для defer в горутинах обработчиков.
func RecoverPanic(ctx context.Context, where string) {
	if r := recover(); r != nil {
		hub := sentry.CurrentHub().Clone()
		if id, ok := ctxutil.ChatID(ctx); ok {
			hub.Scope().SetTag("chat_id", strconv.FormatInt(id, 10))
		}
		hub.Scope().SetTag("where", where)
		hub.Recover(r)
	}
}
