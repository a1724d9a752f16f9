package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alkime/lectio/internal/config"
	"github.com/alkime/lectio/internal/logger"
	"github.com/alkime/lectio/internal/server"
	"github.com/alkime/lectio/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	lg := logger.SetupLogger(cfg)

	lg.Info("Starting lectio server",
		"env", cfg.Env,
		"port", cfg.Port,
		"db_path", cfg.DBPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scripture, err := loadScripture(cfg)
	if err != nil {
		lg.Error("Failed to load scripture", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		lg.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Seed(ctx, scripture); err != nil {
		lg.Error("Failed to seed database", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg, lg, st, scripture)
	if err != nil {
		lg.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(srv) }()

	select {
	case err := <-errCh:
		lg.Error("Failed to start server", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		lg.Info("Shutting down")
	}
}

func loadScripture(cfg *config.Config) (*store.Scripture, error) {
	if cfg.ScriptureCSV == "" {
		return store.SampleScripture()
	}

	return store.LoadScriptureFile(cfg.ScriptureCSV)
}
