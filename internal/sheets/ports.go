package sheets

import (
	"context"

	"fluxo/internal/core"
)

// Header is the first row of the mirror sheet.
var Header = []string{"ID", "Date", "Description", "Type", "Category", "Amount"}

// TransactionMirror keeps a spreadsheet copy of the transactions table.
// Implementations identify rows by transaction id.
type TransactionMirror interface {
	// UpsertTransaction rewrites the row of t, appending one if absent.
	UpsertTransaction(ctx context.Context, t core.Transaction) error
	// DeleteTransaction clears the row of id; a missing row is not an error.
	DeleteTransaction(ctx context.Context, id string) error
	// ReplaceAll rewrites the whole sheet from txs.
	ReplaceAll(ctx context.Context, txs []core.Transaction) error
}

// Row renders t in mirror column order.
func Row(t core.Transaction) []string {
	return []string{
		t.ID.String(),
		t.Date,
		t.Description,
		string(t.Type),
		t.Category,
		t.Amount.StringFixed(2),
	}
}
