package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
)

// FSMGC сбрасывает незаконченные экраны чатов, которые молчат дольше ttl.
// Сессия (token/user) лежит в хранилище чатов и не трогается.
func FSMGC(ttl time.Duration, log *zap.Logger) Job {
	return func(context.Context) error {
		if n := fsmutil.DropIdle(ttl); n > 0 && log != nil {
			log.Info("fsm gc: idle screens dropped", zap.Int("states", n))
		}
		return nil
	}
}
