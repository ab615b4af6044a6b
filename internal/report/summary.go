package report

import (
	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

// SummaryTotals are the headline numbers of the dashboard cards.
type SummaryTotals struct {
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpense     decimal.Decimal `json:"totalExpense"`
	NetBalance       decimal.Decimal `json:"netBalance"`
	SavingsRate      float64         `json:"savingsRate"`
	CategoryCount    int             `json:"categoryCount"`
	TransactionCount int             `json:"transactionCount"`
}

// Summarize computes totals over txs. A net loss gives a negative savings
// rate; no income gives 0.
func Summarize(txs []core.Transaction) SummaryTotals {
	s := SummaryTotals{
		TotalIncome:      decimal.Zero,
		TotalExpense:     decimal.Zero,
		TransactionCount: len(txs),
	}
	categories := make(map[string]struct{})

	for _, t := range txs {
		if t.Type == core.Income {
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		} else {
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		}
		categories[t.Category] = struct{}{}
	}

	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	if s.TotalIncome.IsPositive() {
		s.SavingsRate = s.NetBalance.Div(s.TotalIncome).Mul(hundred).InexactFloat64()
	}
	s.CategoryCount = len(categories)
	return s
}
