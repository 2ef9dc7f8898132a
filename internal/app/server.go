package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sonara-voice/sonara/internal/health"
)

// shutdownTimeout bounds the graceful drain of the operational server.
const shutdownTimeout = 10 * time.Second

// Run serves the operational HTTP endpoints (/healthz, /readyz, /metrics)
// until ctx is cancelled, then drains the server gracefully. Returns the
// context error on cancellation or the server error on listen failure.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	health.New(a.checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("operational server listening", "addr", a.cfg.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("server shutdown error", "error", err)
		}
		return ctx.Err()
	})
	return g.Wait()
}
