package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/gridform/internal/core/health"
	middleware "github.com/mohammed-shakir/gridform/internal/core/middleware"
	"github.com/mohammed-shakir/gridform/internal/core/router"
)

type Options struct {
	Addr        string
	Metrics     http.Handler
	MetricsPath string
	Ready       []health.Check
}

// Handler builds the full route tree.
func Handler(opts Options, logger *slog.Logger, api *router.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(2*time.Second, opts.Ready...))
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, opts.Metrics)
	}
	api.Routes(r)
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, opts Options, logger *slog.Logger, api *router.Handler) error {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           Handler(opts, logger, api),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute, // submit waits for the generator and converter
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", opts.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
