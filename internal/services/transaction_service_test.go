package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxo/internal/amqp"
	"fluxo/internal/cache"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, e amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) kinds() []amqp.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

// countingStore counts list calls to observe cache hits.
type countingStore struct {
	*storage.MemoryStore
	mu    sync.Mutex
	lists int
}

func (c *countingStore) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.MemoryStore.ListTransactions(ctx, userID)
}

func lunch() core.CreateTransactionInput {
	return core.CreateTransactionInput{
		Description: "Lunch",
		Amount:      decimal.RequireFromString("12.50"),
		Type:        core.Expense,
		Category:    "Food",
		Date:        "2024-03-01",
	}
}

func newService() (*TransactionService, *countingStore, *recordingPublisher) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, cache.NewLRUCache[[]core.Transaction](10, time.Minute), pub)
	return svc, store, pub
}

func TestTransactionService_ListIsCached(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService()

	_, err := svc.CreateTransaction(ctx, "alice", lunch())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		txs, err := svc.ListTransactions(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	}
	assert.Equal(t, 1, store.lists)
}

func TestTransactionService_MutationsInvalidate(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService()

	txs, err := svc.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, txs)

	created, err := svc.CreateTransaction(ctx, "alice", lunch())
	require.NoError(t, err)
	txs, err = svc.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	desc := "Team lunch"
	require.NoError(t, svc.UpdateTransaction(ctx, "alice", created.ID, core.TransactionPatch{Description: &desc}))
	txs, err = svc.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", txs[0].Description)

	require.NoError(t, svc.DeleteTransaction(ctx, "alice", created.ID))
	txs, err = svc.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, txs)

	assert.Equal(t, []amqp.EventKind{amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted}, pub.kinds())
}

func TestTransactionService_InvalidationIsPerUser(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService()

	_, err := svc.ListTransactions(ctx, "bob")
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, "alice", lunch())
	require.NoError(t, err)
	_, err = svc.ListTransactions(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, 1, store.lists)
}

func TestTransactionService_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService()
	pub.err = errors.New("broker down")

	created, err := svc.CreateTransaction(ctx, "alice", lunch())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestTransactionService_PublishFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf, Component: log.ComponentHTTP})
	ctx := log.NewContext(context.Background(), logger)

	svc, _, pub := newService()
	pub.err = errors.New("broker down")

	created, err := svc.CreateTransaction(ctx, "alice", lunch())
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), buf.String())
	assert.Equal(t, "Failed to publish transaction event", rec["msg"])
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, log.ComponentTx, rec[log.FieldComponent])
	assert.Equal(t, created.ID.String(), rec[log.FieldTxID])
	assert.Equal(t, string(amqp.EventCreated), rec[log.FieldEventKind])
	assert.Equal(t, "alice", rec[log.FieldUserID])
	assert.Equal(t, "broker down", rec[log.FieldError])
}

func TestTransactionService_ErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService()

	err := svc.DeleteTransaction(ctx, "alice", uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	bad := lunch()
	bad.Amount = decimal.Zero
	_, err = svc.CreateTransaction(ctx, "alice", bad)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	assert.Empty(t, pub.kinds())
}

func TestTransactionService_NilCacheAndPublisher(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(storage.NewMemoryStore(), nil, nil)

	created, err := svc.CreateTransaction(ctx, "alice", lunch())
	require.NoError(t, err)
	got, err := svc.GetTransaction(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
