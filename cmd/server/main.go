package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"oriani/internal/api"
	"oriani/internal/auth"
	"oriani/internal/config"
	"oriani/internal/logging"
	"oriani/internal/metrics"
	"oriani/internal/storage"
	"oriani/internal/web"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if cfg.Security.GeneratedSecret {
		logging.Warn().Msg("JWT_SECRET_KEY not set; using a random secret, tokens will not survive a restart")
	}
	if cfg.Security.AdminEmail == "" || cfg.Security.AdminPassword == "" {
		logging.Warn().Msg("ADMIN_EMAIL/ADMIN_PASSWORD not set; login is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := storage.Connect(connectCtx, cfg.Store.URL, cfg.Store.Name)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("failed to close store")
		}
	}()

	authService, err := auth.NewAuthService(db.Users, cfg.Security)
	if err != nil {
		return err
	}
	m := metrics.New()

	webServer, err := web.NewServer(db, authService, m)
	if err != nil {
		return err
	}
	apiServer := api.NewServer(db, authService, m)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestIDToContext)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Mount("/api", apiServer.Routes(api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		LoginRateLimit: cfg.Server.LoginRateLimit,
	}))
	r.Mount("/", webServer.Routes(web.Options{LoginRateLimit: cfg.Server.LoginRateLimit}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Int("port", cfg.Server.Port).
			Str("db_name", cfg.Store.Name).
			Msg("starting Oriani server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func requestIDToContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logging.ContextWithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip health checks to reduce noise
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
