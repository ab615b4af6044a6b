// Package backend opens the persistence backend named by configuration.
package backend

import (
	"fmt"
	"log/slog"

	"fluxo/internal/config"
	"fluxo/internal/storage"
)

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{Type: t, SQLiteDBPath: appConfig.SQLiteDBPath}, nil
}

// Open creates the configured backend.
func Open(cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		logger.Info("Initialized SQLite backend", "component", "storage", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Ready: repo, Cleanup: repo.Close}, nil
	case Memory:
		// Data lives only as long as the process.
		logger.Warn("Initialized memory backend; data is not persisted", "component", "storage")
		return &Result{Store: storage.NewMemoryStore(), Cleanup: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
