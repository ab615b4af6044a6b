package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fluxo/internal/amqp"
	"fluxo/internal/sheets"
	"fluxo/internal/storage"
)

// EventConsumer delivers transaction events until ctx ends.
type EventConsumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.EventHandler) error
}

// MirrorWorker keeps the spreadsheet mirror in step with the database.
type MirrorWorker struct {
	store          storage.TransactionStore
	scanner        storage.TransactionScanner
	mirror         sheets.TransactionMirror
	resyncInterval time.Duration
}

func NewMirrorWorker(store storage.TransactionStore, scanner storage.TransactionScanner, mirror sheets.TransactionMirror, resyncInterval time.Duration) *MirrorWorker {
	return &MirrorWorker{
		store:          store,
		scanner:        scanner,
		mirror:         mirror,
		resyncInterval: resyncInterval,
	}
}

// HandleEvent applies one event to the mirror. A created or updated row that
// no longer exists was deleted since; the matching delete event handles it.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event amqp.TransactionEvent) error {
	switch event.Kind {
	case amqp.EventCreated, amqp.EventUpdated:
		t, err := w.store.GetTransaction(ctx, event.UserID, event.ID)
		if errors.Is(err, storage.ErrNotFound) {
			slog.InfoContext(ctx, "Transaction gone before mirroring, skipping",
				"component", "worker", "transaction_id", event.ID, "event_kind", event.Kind)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction %s: %w", event.ID, err)
		}
		if err := w.mirror.UpsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("mirror transaction %s: %w", event.ID, err)
		}
	case amqp.EventDeleted:
		if err := w.mirror.DeleteTransaction(ctx, event.ID.String()); err != nil {
			return fmt.Errorf("remove mirrored transaction %s: %w", event.ID, err)
		}
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	slog.InfoContext(ctx, "Mirror updated",
		"component", "worker", "transaction_id", event.ID, "event_kind", event.Kind)
	return nil
}

// Resync rewrites the mirror from the database. It repairs drift left by
// lost events.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	txs, err := w.scanner.ListAllTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if err := w.mirror.ReplaceAll(ctx, txs); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	slog.InfoContext(ctx, "Mirror resynced", "component", "worker", "count", len(txs))
	return nil
}

// RunResync resyncs once at start and then every interval. Failed passes
// are logged and retried on the next tick.
func (w *MirrorWorker) RunResync(ctx context.Context) error {
	if err := w.Resync(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Startup resync failed", "component", "worker", "error", err)
	}
	if w.resyncInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.resyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Periodic resync failed", "component", "worker", "error", err)
			}
		}
	}
}

// Run consumes events and runs the resync loop until ctx ends or one of them
// fails. Cancellation is a clean exit.
func (w *MirrorWorker) Run(ctx context.Context, consumer EventConsumer) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeTransactionEvents(gctx, w.HandleEvent)
	})
	g.Go(func() error {
		return w.RunResync(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
