package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/casetrail/casetrail/pkg/evidence"
	"github.com/casetrail/casetrail/pkg/evidence/api"
	"github.com/casetrail/casetrail/pkg/evidence/config"
	directorymemory "github.com/casetrail/casetrail/pkg/evidence/directory/memory"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// The case directory belongs to the surrounding case-management
	// system; the in-memory one keeps the standalone server usable for
	// development until that system is wired in.
	svc, err := cfg.BuildService(ctx, evidence.WithCaseDirectory(directorymemory.New()))
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	// Deployment precondition: the bucket must already exist.
	if err := svc.EnsureBucket(ctx); err != nil {
		slog.Error("Bucket check failed", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Mount("/api/v1", api.NewHandler(svc).Routes())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "err", err)
		os.Exit(1)
	}
}
