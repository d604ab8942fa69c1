package app

import (
	"context"
	"net/http"
	"time"

	"github.com/rusl-cricket/attendance-bot/internal/metrics"
	"github.com/rusl-cricket/attendance-bot/internal/storage"
)

type HTTPServer struct {
	srv *http.Server
}

// StartHTTP поднимает /healthz (пинг хранилища чатов) и /metrics.
func StartHTTP(ctx context.Context, addr string, store storage.Backend) *HTTPServer {
	mux := http.NewServeMux()
	mux.Handle("/healthz", healthHandler(store))
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		_ = srv.ListenAndServe() // закрываем аккуратно при Shutdown
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}

func healthHandler(store storage.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := store.Ping(ctx); err != nil {
			http.Error(w, "storage not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveStoragePing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	}
}
