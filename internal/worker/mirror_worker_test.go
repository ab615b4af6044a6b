package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/sheets/memory"
	"fluxo/internal/storage"
)

type failingMirror struct {
	*memory.Mirror
	err error
}

func (f failingMirror) UpsertTransaction(context.Context, core.Transaction) error {
	return f.err
}

func seed(t *testing.T, store *storage.MemoryStore, user, desc string) core.Transaction {
	t.Helper()
	tx, err := store.CreateTransaction(context.Background(), user, core.CreateTransactionInput{
		Description: desc,
		Amount:      decimal.RequireFromString("10"),
		Type:        core.Expense,
		Category:    "Food",
		Date:        "2024-03-01",
	})
	require.NoError(t, err)
	return tx
}

func TestMirrorWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	mirror := memory.New()
	w := NewMirrorWorker(store, store, mirror, 0)

	tx := seed(t, store, "alice", "Lunch")
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventCreated, "alice", tx.ID)))
	row, ok := mirror.Row(tx.ID.String())
	require.True(t, ok)
	assert.Equal(t, "Lunch", row[2])

	desc := "Brunch"
	require.NoError(t, store.UpdateTransaction(ctx, "alice", tx.ID, core.TransactionPatch{Description: &desc}))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventUpdated, "alice", tx.ID)))
	row, _ = mirror.Row(tx.ID.String())
	assert.Equal(t, "Brunch", row[2])

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventDeleted, "alice", tx.ID)))
	_, ok = mirror.Row(tx.ID.String())
	assert.False(t, ok)
}

func TestMirrorWorker_MissingRowIsAcked(t *testing.T) {
	store := storage.NewMemoryStore()
	mirror := memory.New()
	w := NewMirrorWorker(store, store, mirror, 0)

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(amqp.EventCreated, "alice", uuid.New()))
	assert.NoError(t, err)
	assert.Empty(t, mirror.Rows())
}

func TestMirrorWorker_MirrorErrorIsReturned(t *testing.T) {
	store := storage.NewMemoryStore()
	boom := errors.New("quota exceeded")
	w := NewMirrorWorker(store, store, failingMirror{Mirror: memory.New(), err: boom}, 0)
	tx := seed(t, store, "alice", "Lunch")

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(amqp.EventUpdated, "alice", tx.ID))
	assert.ErrorIs(t, err, boom)
}

func TestMirrorWorker_Resync(t *testing.T) {
	store := storage.NewMemoryStore()
	mirror := memory.New()
	w := NewMirrorWorker(store, store, mirror, 0)

	seed(t, store, "alice", "Lunch")
	seed(t, store, "bob", "Dinner")
	require.NoError(t, mirror.UpsertTransaction(context.Background(), core.Transaction{ID: uuid.New(), Description: "orphan"}))

	require.NoError(t, w.Resync(context.Background()))
	assert.Len(t, mirror.Rows(), 2)
}

type stubConsumer struct {
	events []amqp.TransactionEvent
}

func (s stubConsumer) ConsumeTransactionEvents(ctx context.Context, handler amqp.EventHandler) error {
	for _, e := range s.events {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestMirrorWorker_RunStopsCleanly(t *testing.T) {
	store := storage.NewMemoryStore()
	mirror := memory.New()
	w := NewMirrorWorker(store, store, mirror, time.Hour)
	tx := seed(t, store, "alice", "Lunch")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, stubConsumer{events: []amqp.TransactionEvent{
			amqp.NewTransactionEvent(amqp.EventCreated, "alice", tx.ID),
		}})
	}()

	require.Eventually(t, func() bool {
		_, ok := mirror.Row(tx.ID.String())
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
