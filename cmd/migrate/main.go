package main

// Applies or inspects database migrations without starting the API:
//   go run ./cmd/migrate -config config.yaml -command up

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/util"
	"document-ingestion-service/migrations"
)

func main() {
	configPath := flag.String("config", envOr("DOCS_CONFIG", "config.yaml"), "path to the yaml config")
	command := flag.String("command", "up", "up, down or status")
	flag.Parse()

	if err := run(*configPath, *command); err != nil {
		slog.Error("migrate failed", "command", *command, "error", err)
		os.Exit(1)
	}
	slog.Info("migrate finished", "command", *command)
}

func run(configPath, command string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	util.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	db, err := config.SetupDatabase(&cfg.DatabaseConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	switch command {
	case "up":
		return migrations.Up(ctx, db.DB.DB)
	case "down":
		return migrations.Down(ctx, db.DB.DB)
	case "status":
		return migrations.Status(ctx, db.DB.DB)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
