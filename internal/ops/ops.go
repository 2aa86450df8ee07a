// Package ops serves the operational HTTP endpoints.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hunterjsb/fftournament/internal/metrics"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Status reports liveness details. It returns the number of live sessions.
type Status func() int

type health struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

// NewRouter returns the ops router with /healthz and /metrics.
func NewRouter(rec *metrics.Recorder, status Status) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h := health{Status: "ok"}
		if status != nil {
			h.ActiveSessions = status()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(h)
	})
	if rec != nil {
		r.Handle("/metrics", rec.Handler())
	}
	return r
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "ops server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info(ctx, "ops server stopped")
	return nil
}
