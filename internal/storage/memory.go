package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fluxo/internal/core"
)

// MemoryStore is an in-process TransactionStore and ProfileStore for tests
// and local runs without a database file.
type MemoryStore struct {
	mu      sync.RWMutex
	txs     map[uuid.UUID]core.Transaction
	avatars map[string]string
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txs:     make(map[uuid.UUID]core.Transaction),
		avatars: make(map[string]string),
		now:     time.Now,
	}
}

func sortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date > txs[j].Date
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}

func (m *MemoryStore) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Transaction, 0)
	for _, t := range m.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) ListAllTransactions(_ context.Context) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Transaction, 0, len(m.txs))
	for _, t := range m.txs {
		out = append(out, t)
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, userID string, id uuid.UUID) (core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryStore) CreateTransaction(_ context.Context, userID string, in core.CreateTransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := core.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   m.now().UTC(),
	}
	m.txs[t.ID] = t
	return t, nil
}

func (m *MemoryStore) UpdateTransaction(_ context.Context, userID string, id uuid.UUID, patch core.TransactionPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	m.txs[id] = patch.Apply(t)
	return nil
}

func (m *MemoryStore) DeleteTransaction(_ context.Context, userID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *MemoryStore) GetAvatarURL(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.avatars[userID], nil
}

func (m *MemoryStore) SetAvatarURL(_ context.Context, userID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avatars[userID] = url
	return nil
}
