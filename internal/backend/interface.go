package backend

import (
	"context"

	"fluxo/internal/storage"
)

// Store is everything the API server needs from persistence.
type Store interface {
	storage.TransactionStore
	storage.TransactionScanner
	storage.ProfileStore
}

// CleanupFunc releases a backend's resources.
type CleanupFunc func() error

// Result contains the store and the hooks around it.
type Result struct {
	Store Store
	// Ready pings the database; nil when there is nothing to ping.
	Ready interface {
		Ping(ctx context.Context) error
	}
	Cleanup CleanupFunc
}

// Type names a persistence backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}

// Config selects and configures a backend.
type Config struct {
	Type         Type
	SQLiteDBPath string
}
