package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"fluxo/internal/core"
)

// ErrNotFound is returned when a row does not exist for the requesting user.
var ErrNotFound = errors.New("not found")

// TransactionStore is the transaction source. Every method is scoped to
// userID; rows owned by other users behave as missing.
type TransactionStore interface {
	// ListTransactions returns newest first: date desc, then created_at desc.
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID string, id uuid.UUID) (core.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, in core.CreateTransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID string, id uuid.UUID, patch core.TransactionPatch) error
	DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error
}

// TransactionScanner walks every user's transactions; the mirror resync uses it.
type TransactionScanner interface {
	ListAllTransactions(ctx context.Context) ([]core.Transaction, error)
}

// ProfileStore keeps per-user profile data.
type ProfileStore interface {
	GetAvatarURL(ctx context.Context, userID string) (string, error)
	SetAvatarURL(ctx context.Context, userID, url string) error
}
