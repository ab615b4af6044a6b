package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// DefaultPreviewSize is how many contributing transactions a tooltip lists per side.
const DefaultPreviewSize = 3

type (
	Granularity string

	// Item is a transaction contributing to a bucket.
	Item struct {
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}

	// Bucket aggregates one calendar day or month.
	Bucket struct {
		Key          string          `json:"key"`
		Start        time.Time       `json:"start"`
		Label        string          `json:"label"`
		FullLabel    string          `json:"fullLabel"`
		Income       decimal.Decimal `json:"income"`
		Expense      decimal.Decimal `json:"expense"`
		Balance      decimal.Decimal `json:"balance"`
		IncomeItems  []Item          `json:"-"`
		ExpenseItems []Item          `json:"-"`
	}

	// Preview is the head of a bucket's item list plus the count left out.
	Preview struct {
		Items    []Item `json:"items"`
		Overflow int    `json:"overflow"`
	}
)

// ParseGranularity maps a query value to a Granularity, defaulting to Daily.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case "", Daily:
		return Daily, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("invalid granularity %q: must be daily or monthly", s)
	}
}

func (g Granularity) truncate(d core.Date) core.Date {
	if g == Monthly {
		return d.MonthStart()
	}
	return d
}

func (g Granularity) key(d core.Date) string {
	if g == Monthly {
		return d.Format("2006-01")
	}
	return d.String()
}

func (g Granularity) labels(d core.Date) (string, string) {
	if g == Monthly {
		return d.Format("Jan 2006"), d.Format("January 2006")
	}
	return d.Format("02/01"), d.Format("02 January 2006")
}

func newBucket(g Granularity, start core.Date) Bucket {
	label, full := g.labels(start)
	return Bucket{
		Key:       g.key(start),
		Start:     start.Time,
		Label:     label,
		FullLabel: full,
		Income:    decimal.Zero,
		Expense:   decimal.Zero,
		Balance:   decimal.Zero,
	}
}

// Buckets groups transactions by day or month, ordered chronologically, with
// a running balance carried across buckets.
func Buckets(txs []core.Transaction, g Granularity, opts ...Option) []Bucket {
	o := newOptions(opts)
	index := make(map[string]int)
	buckets := make([]Bucket, 0)

	for _, t := range txs {
		d, ok := t.CalendarDate()
		if !ok {
			o.badDate(t)
		}
		start := g.truncate(d)
		key := g.key(start)

		i, seen := index[key]
		if !seen {
			buckets = append(buckets, newBucket(g, start))
			i = len(buckets) - 1
			index[key] = i
		}

		b := &buckets[i]
		item := Item{Description: t.Description, Amount: t.Amount}
		if t.Type == core.Income {
			b.Income = b.Income.Add(t.Amount)
			b.IncomeItems = append(b.IncomeItems, item)
		} else {
			b.Expense = b.Expense.Add(t.Amount)
			b.ExpenseItems = append(b.ExpenseItems, item)
		}
	}

	// Buckets are discovered in input order; the prefix sum needs calendar order.
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})

	running := decimal.Zero
	for i := range buckets {
		running = running.Add(buckets[i].Income).Sub(buckets[i].Expense)
		buckets[i].Balance = running
	}
	return buckets
}

// Net is the bucket's own income minus expense.
func (b Bucket) Net() decimal.Decimal {
	return b.Income.Sub(b.Expense)
}

func (b Bucket) IncomePreview(limit int) Preview {
	return preview(b.IncomeItems, limit)
}

func (b Bucket) ExpensePreview(limit int) Preview {
	return preview(b.ExpenseItems, limit)
}

func preview(items []Item, limit int) Preview {
	if limit < 0 {
		limit = 0
	}
	if len(items) <= limit {
		return Preview{Items: append([]Item{}, items...)}
	}
	return Preview{
		Items:    append([]Item{}, items[:limit]...),
		Overflow: len(items) - limit,
	}
}
