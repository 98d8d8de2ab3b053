package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lessonlint/lessonlint/internal/api"
	"github.com/lessonlint/lessonlint/internal/config"
	"github.com/lessonlint/lessonlint/internal/lint"
	"github.com/lessonlint/lessonlint/internal/linkcheck"
	"github.com/lessonlint/lessonlint/internal/pipeline"
	"github.com/lessonlint/lessonlint/internal/storage/sqlite"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	lintCfg := lint.DefaultConfig()
	if cfg.RulesPath != "" {
		var err error
		lintCfg, err = lint.LoadConfig(cfg.RulesPath)
		if err != nil {
			log.Error("invalid rules configuration", "path", cfg.RulesPath, "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize report history.
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open report store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	// Link checking is opt-in: it makes outbound requests.
	var checker *linkcheck.Checker
	if cfg.LinkCheck {
		checker = linkcheck.NewChecker(cfg.LinkCheckTimeout, cfg.LinkCheckConcurrency)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, lintCfg, checker, store, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, checker, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if checker != nil {
			checker.Close()
		}
		store.Close()
	}()

	log.Info("starting lessonlint", "port", cfg.Port, "link_check", cfg.LinkCheck)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
