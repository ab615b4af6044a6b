package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxo/internal/core"
)

type storeUnderTest interface {
	TransactionStore
	TransactionScanner
	ProfileStore
}

// steppingClock hands out strictly increasing timestamps.
type steppingClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func newClock() func() time.Time {
	return (&steppingClock{cur: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}).Now
}

func stores(t *testing.T) map[string]storeUnderTest {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "fluxo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	repo.now = newClock()

	mem := NewMemoryStore()
	mem.now = newClock()

	return map[string]storeUnderTest{"sqlite": repo, "memory": mem}
}

func input(desc, amount string, typ core.TransactionType, category, date string) core.CreateTransactionInput {
	return core.CreateTransactionInput{
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
		Category:    category,
		Date:        date,
	}
}

func TestStore_CreateGetList(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := s.CreateTransaction(ctx, "alice", input("  Salary ", "2500.50", core.Income, "Work", "2024-03-01"))
			require.NoError(t, err)
			assert.Equal(t, "Salary", first.Description)
			assert.NotEqual(t, uuid.Nil, first.ID)

			second, err := s.CreateTransaction(ctx, "alice", input("Groceries", "80.10", core.Expense, "Food", "2024-03-01"))
			require.NoError(t, err)
			older, err := s.CreateTransaction(ctx, "alice", input("Rent", "900", core.Expense, "Home", "2024-02-28"))
			require.NoError(t, err)
			_, err = s.CreateTransaction(ctx, "bob", input("Coffee", "3", core.Expense, "Food", "2024-03-05"))
			require.NoError(t, err)

			got, err := s.GetTransaction(ctx, "alice", first.ID)
			require.NoError(t, err)
			assert.True(t, got.Amount.Equal(decimal.RequireFromString("2500.5")))
			assert.Equal(t, core.Income, got.Type)
			assert.Equal(t, "2024-03-01", got.Date)

			list, err := s.ListTransactions(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, []uuid.UUID{second.ID, first.ID, older.ID}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})

			all, err := s.ListAllTransactions(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 4)
		})
	}
}

func TestStore_UserIsolation(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			tx, err := s.CreateTransaction(ctx, "alice", input("Salary", "10", core.Income, "Work", "2024-03-01"))
			require.NoError(t, err)

			_, err = s.GetTransaction(ctx, "mallory", tx.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			desc := "Hijacked"
			err = s.UpdateTransaction(ctx, "mallory", tx.ID, core.TransactionPatch{Description: &desc})
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, s.DeleteTransaction(ctx, "mallory", tx.ID), ErrNotFound)

			list, err := s.ListTransactions(ctx, "mallory")
			require.NoError(t, err)
			assert.Empty(t, list)

			got, err := s.GetTransaction(ctx, "alice", tx.ID)
			require.NoError(t, err)
			assert.Equal(t, "Salary", got.Description)
		})
	}
}

func TestStore_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			tx, err := s.CreateTransaction(ctx, "alice", input("Lunch", "12.5", core.Expense, "Food", "2024-03-01"))
			require.NoError(t, err)

			amount := decimal.RequireFromString("15")
			date := "2024-03-02"
			require.NoError(t, s.UpdateTransaction(ctx, "alice", tx.ID, core.TransactionPatch{Amount: &amount, Date: &date}))

			got, err := s.GetTransaction(ctx, "alice", tx.ID)
			require.NoError(t, err)
			assert.True(t, got.Amount.Equal(amount))
			assert.Equal(t, "2024-03-02", got.Date)
			assert.Equal(t, "Lunch", got.Description)

			assert.ErrorIs(t, s.UpdateTransaction(ctx, "alice", tx.ID, core.TransactionPatch{}), core.ErrEmptyPatch)

			require.NoError(t, s.DeleteTransaction(ctx, "alice", tx.ID))
			_, err = s.GetTransaction(ctx, "alice", tx.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteTransaction(ctx, "alice", tx.ID), ErrNotFound)
		})
	}
}

func TestStore_CreateValidates(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.CreateTransaction(ctx, "alice", input("x", "10", core.Expense, "Food", "2024-03-01"))
			assert.ErrorIs(t, err, core.ErrShortDescription)

			_, err = s.CreateTransaction(ctx, "alice", input("Lunch", "0", core.Expense, "Food", "2024-03-01"))
			assert.ErrorIs(t, err, core.ErrInvalidAmount)

			_, err = s.CreateTransaction(ctx, "alice", input("Lunch", "1", core.Expense, "Food", "2024-02-30"))
			assert.ErrorIs(t, err, core.ErrInvalidDate)
		})
	}
}

func TestStore_Avatar(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			url, err := s.GetAvatarURL(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, url)

			require.NoError(t, s.SetAvatarURL(ctx, "alice", "https://cdn.example.com/a.png"))
			require.NoError(t, s.SetAvatarURL(ctx, "alice", "https://cdn.example.com/b.png"))

			url, err = s.GetAvatarURL(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "https://cdn.example.com/b.png", url)
		})
	}
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fluxo.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	tx, err := repo.CreateTransaction(ctx, "alice", input("Salary", "10", core.Income, "Work", "2024-03-01"))
	require.NoError(t, err)
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.GetTransaction(ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.WithinDuration(t, tx.CreatedAt, got.CreatedAt, time.Millisecond)
}
