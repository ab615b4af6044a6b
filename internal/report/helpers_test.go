package report

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

func tx(t *testing.T, typ core.TransactionType, amount, category, date string) core.Transaction {
	t.Helper()
	return core.Transaction{
		ID:          uuid.New(),
		UserID:      "user-1",
		Description: category + " " + date,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
		Category:    category,
		Date:        date,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
