package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rusl-cricket/attendance-bot/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
}

func New(ctx context.Context) *Runner { return &Runner{ctx: ctx} }

// Every запускает fn раз в interval до отмены контекста раннера.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	if interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// run — один прогон с метриками; паника задачи не роняет цикл.
func (r *Runner) run(name string, fn Job) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in job %s: %v", name, p)
			observability.CaptureErr(err)
		}
		if err != nil {
			jobErrors.WithLabelValues(name).Inc()
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	return fn(r.ctx)
}
