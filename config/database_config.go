package config

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Database struct {
	*sqlx.DB
}

func NewDatabaseConnection(dbDriver string, cfg *DatabaseConfig) (*Database, error) {
	database, err := sqlx.Connect(dbDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database connect: %w", err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		database.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		database.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	slog.Info("database connection established", "driver", dbDriver)
	return &Database{
		database,
	}, nil
}

func (db *Database) Close() error {
	err := db.DB.Close()
	if err != nil {
		return fmt.Errorf("database close: %w", err)
	}

	return nil
}
