package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/seometrics/internal/activity"
	"github.com/user/seometrics/internal/api"
	"github.com/user/seometrics/internal/capability"
	"github.com/user/seometrics/internal/config"
	"github.com/user/seometrics/internal/db"
	"github.com/user/seometrics/internal/hub"
	"github.com/user/seometrics/internal/orchestrator"
	"github.com/user/seometrics/internal/registry"
	"github.com/user/seometrics/internal/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	models, err := registry.NewRegistry(cfg.ModelsDir)
	if err != nil {
		slog.Error("failed to load model registry", "error", err)
		os.Exit(1)
	}

	capabilities := capability.DefaultRegistry()

	feed := hub.New(cfg.Token)
	go feed.Run(ctx)

	recorder := activity.NewRecorder(db.NewActivityRepo(database.SQL()), feed)
	defer recorder.Close()

	orch, err := orchestrator.New(orchestrator.Options{
		Capabilities: capabilities,
		Models:       models,
		Provider:     orchestrator.NewHTTPProvider(nil),
		Executor: &orchestrator.RESTExecutor{
			BaseURL:    cfg.BackendBaseURL,
			Token:      cfg.BackendToken,
			HTTPClient: &http.Client{Timeout: 60 * time.Second},
		},
		Recorder:          recorder,
		MaxTurns:          cfg.MaxTurns,
		WallClockBudget:   time.Duration(cfg.WallClockBudgetSec) * time.Second,
		ModelCallTimeout:  time.Duration(cfg.ModelCallTimeoutSec) * time.Second,
		HistoryCharBudget: cfg.HistoryCharBudget,
	})
	if err != nil {
		slog.Error("failed to build orchestrator", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(database.SQL(), orch, capabilities, models, cfg.Token)
	srv := server.New(cfg, feed, router)

	if cfg.PrintToken {
		fmt.Printf("\nseometrics running at http://localhost:%d?token=%s\n\n", cfg.Port, cfg.Token)
	} else {
		slog.Info("seometrics running", "port", cfg.Port)
	}

	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
