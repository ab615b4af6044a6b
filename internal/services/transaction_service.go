package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fluxo/internal/amqp"
	"fluxo/internal/cache"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/storage"
)

// EventPublisher announces committed mutations.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event amqp.TransactionEvent) error
}

// TransactionService fronts the store with a per-user list cache and
// publishes an event after every mutation. Publish failures are logged, never
// returned: the database write already happened.
type TransactionService struct {
	store     storage.TransactionStore
	cache     cache.Cache[[]core.Transaction]
	publisher EventPublisher

	// generations counts invalidations per user so a List racing a mutation
	// cannot put a stale snapshot back into the cache.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewTransactionService wires the service. cache and publisher may be nil.
func NewTransactionService(store storage.TransactionStore, c cache.Cache[[]core.Transaction], publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:       store,
		cache:       c,
		publisher:   publisher,
		generations: make(map[string]uint64),
	}
}

func (s *TransactionService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// ListTransactions returns the user's transactions, newest first. Callers
// must not modify the returned slice.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	key := cache.TransactionsKey(userID)
	if s.cache != nil {
		if txs, ok := s.cache.Get(key); ok {
			return txs, nil
		}
	}

	gen := s.generation(userID)
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	if s.cache != nil {
		s.mu.Lock()
		if s.generations[userID] == gen {
			s.cache.Set(key, txs)
		}
		s.mu.Unlock()
	}
	return txs, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, userID string, id uuid.UUID) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, in core.CreateTransactionInput) (core.Transaction, error) {
	t, err := s.store.CreateTransaction(ctx, userID, in)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.invalidate(userID)
	s.publish(ctx, amqp.EventCreated, userID, t.ID)
	return t, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, userID string, id uuid.UUID, patch core.TransactionPatch) error {
	if err := s.store.UpdateTransaction(ctx, userID, id, patch); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.invalidate(userID)
	s.publish(ctx, amqp.EventUpdated, userID, id)
	return nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate(userID)
	s.publish(ctx, amqp.EventDeleted, userID, id)
	return nil
}

func (s *TransactionService) invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
	if s.cache != nil {
		s.cache.Invalidate(cache.TransactionsKey(userID))
	}
}

func (s *TransactionService) publish(ctx context.Context, kind amqp.EventKind, userID string, id uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(kind, userID, id)); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentTx).ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldEventKind, kind,
			log.FieldTxID, id.String(),
			log.FieldUserID, userID,
			log.FieldError, err)
	}
}
