package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fluxo/internal/core"

	_ "modernc.org/sqlite"
)

// Fixed-width UTC timestamps sort correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, user_id, description, amount, type, category, date, created_at FROM transactions`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens the database at dbPath, creating its directory,
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		id        string
		amount    string
		txType    string
		createdAt string
	)
	if err := row.Scan(&id, &t.UserID, &t.Description, &amount, &txType, &t.Category, &t.Date, &createdAt); err != nil {
		return core.Transaction{}, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse id %q: %w", id, err)
	}
	t.ID = parsedID

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount of %s: %w", id, err)
	}
	t.Type = core.TransactionType(txType)

	if t.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at of %s: %w", id, err)
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectColumns+` WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY user_id, date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID string, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE user_id = ? AND id = ?`, userID, id.String())
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, in core.CreateTransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   r.now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, description, amount, type, category, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID, t.Description, t.Amount.String(), string(t.Type), t.Category, t.Date,
		t.CreatedAt.Format(timestampLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite", "id", t.ID, "user_id", userID)
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID string, id uuid.UUID, patch core.TransactionPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	current, err := scanTransaction(tx.QueryRowContext(ctx, selectColumns+` WHERE user_id = ? AND id = ?`, userID, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", id, err)
	}

	next := patch.Apply(current)
	_, err = tx.ExecContext(ctx,
		`UPDATE transactions SET description = ?, amount = ?, type = ?, category = ?, date = ?
		 WHERE user_id = ? AND id = ?`,
		next.Description, next.Amount.String(), string(next.Type), next.Category, next.Date,
		userID, id.String())
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAvatarURL returns the stored avatar URL, empty when the user has none.
func (r *SQLiteRepository) GetAvatarURL(ctx context.Context, userID string) (string, error) {
	var url string
	err := r.db.QueryRowContext(ctx, `SELECT avatar_url FROM profiles WHERE user_id = ?`, userID).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get avatar url: %w", err)
	}
	return url, nil
}

func (r *SQLiteRepository) SetAvatarURL(ctx context.Context, userID, url string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, avatar_url, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET avatar_url = excluded.avatar_url, updated_at = excluded.updated_at`,
		userID, url, r.now().UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("set avatar url: %w", err)
	}
	return nil
}
