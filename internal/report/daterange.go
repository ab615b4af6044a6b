package report

import (
	"errors"
	"fmt"
	"strings"

	"fluxo/internal/core"
)

var ErrInvertedRange = errors.New("date range start is after its end")

// DateRange is an inclusive calendar range. A nil bound is open on that side;
// both nil means no filter.
type DateRange struct {
	From *core.Date
	To   *core.Date
}

// Unbounded is the "no filter" range.
func Unbounded() DateRange {
	return DateRange{}
}

func (r DateRange) IsUnbounded() bool {
	return r.From == nil && r.To == nil
}

func (r DateRange) Contains(d core.Date) bool {
	if r.From != nil && d.Before(r.From.Time) {
		return false
	}
	if r.To != nil && d.After(r.To.Time) {
		return false
	}
	return true
}

// MonthRange covers the whole of the given month.
func MonthRange(year, month int) DateRange {
	start := core.NewDate(year, month, 1)
	end := start.MonthEnd()
	return DateRange{From: &start, To: &end}
}

// ParseDateRange reads YYYY-MM-DD bounds; empty strings leave a side open.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if strings.TrimSpace(from) != "" {
		d, err := core.ParseDate(from)
		if err != nil {
			return DateRange{}, fmt.Errorf("from: %w", err)
		}
		r.From = &d
	}
	if strings.TrimSpace(to) != "" {
		d, err := core.ParseDate(to)
		if err != nil {
			return DateRange{}, fmt.Errorf("to: %w", err)
		}
		r.To = &d
	}
	if r.From != nil && r.To != nil && r.From.After(r.To.Time) {
		return DateRange{}, ErrInvertedRange
	}
	return r, nil
}

// FilterByDate keeps the transactions whose date falls inside r. An unbounded
// range returns txs itself.
func FilterByDate(txs []core.Transaction, r DateRange) []core.Transaction {
	if r.IsUnbounded() {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		d, _ := t.CalendarDate()
		if r.Contains(d) {
			out = append(out, t)
		}
	}
	return out
}
