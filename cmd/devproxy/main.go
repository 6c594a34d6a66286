// Command devproxy exposes the backend on a single public port during local
// development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"oriani/internal/config"
	"oriani/internal/devproxy"
	"oriani/internal/logging"
)

func main() {
	cfg, err := config.LoadProxy()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid proxy configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	backend, err := url.Parse(cfg.BackendURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid backend URL")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           devproxy.New(backend),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.Info().Int("port", cfg.Port).Str("backend", cfg.BackendURL).Msg("proxy listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("proxy failed")
	}
}
