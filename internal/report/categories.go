package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

const (
	FilterIncome  TypeFilter = "income"
	FilterExpense TypeFilter = "expense"
	FilterAll     TypeFilter = "all"
)

var hundred = decimal.NewFromInt(100)

type (
	// TypeFilter selects income, expense or both.
	TypeFilter string

	CategoryAggregate struct {
		Name       string          `json:"name"`
		Amount     decimal.Decimal `json:"amount"`
		Percentage float64         `json:"percentage"`
		Count      int             `json:"count"`
	}
)

// ParseTypeFilter maps a query value to a TypeFilter; empty means fallback.
func ParseTypeFilter(s string, fallback TypeFilter) (TypeFilter, error) {
	switch f := TypeFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return fallback, nil
	case FilterIncome, FilterExpense, FilterAll:
		return f, nil
	default:
		return "", fmt.Errorf("invalid type filter %q: must be income, expense or all", s)
	}
}

// Match reports whether a transaction passes the filter.
func (f TypeFilter) Match(t core.Transaction) bool {
	switch f {
	case FilterAll, "":
		return true
	default:
		return string(t.Type) == string(f)
	}
}

// FilterByType returns the transactions matching f; FilterAll returns txs as is.
func FilterByType(txs []core.Transaction, f TypeFilter) []core.Transaction {
	if f == FilterAll || f == "" {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Categories sums amounts per category, largest first. Category names are
// compared exactly; ties keep first-seen order.
func Categories(txs []core.Transaction, f TypeFilter) []CategoryAggregate {
	index := make(map[string]int)
	out := make([]CategoryAggregate, 0)
	total := decimal.Zero

	for _, t := range FilterByType(txs, f) {
		i, ok := index[t.Category]
		if !ok {
			out = append(out, CategoryAggregate{Name: t.Category, Amount: decimal.Zero})
			i = len(out) - 1
			index[t.Category] = i
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
		out[i].Count++
		total = total.Add(t.Amount)
	}

	if total.IsPositive() {
		for i := range out {
			out[i].Percentage = out[i].Amount.Div(total).Mul(hundred).InexactFloat64()
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

// DistinctCategories lists the category names present in txs, first-seen order.
func DistinctCategories(txs []core.Transaction, f TypeFilter) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, t := range FilterByType(txs, f) {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	return out
}
