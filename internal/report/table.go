package report

import (
	"strings"

	"fluxo/internal/core"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TableQuery selects one page of the transactions table.
type TableQuery struct {
	Search   string
	Type     TypeFilter
	Category string
	Page     int // 1-based
	PageSize int
}

type TablePage struct {
	Items      []core.Transaction `json:"items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	Total      int                `json:"total"`
	TotalPages int                `json:"totalPages"`
}

func (q TableQuery) normalized() TableQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	return q
}

// Paginate filters txs by type, category and description search and returns
// the requested page, keeping input order.
func Paginate(txs []core.Transaction, q TableQuery) TablePage {
	q = q.normalized()

	matched := make([]core.Transaction, 0, len(txs))
	for _, t := range FilterByType(txs, q.Type) {
		if q.Category != "" && t.Category != q.Category {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(t.Description), q.Search) {
			continue
		}
		matched = append(matched, t)
	}

	page := TablePage{
		Items:      []core.Transaction{},
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      len(matched),
		TotalPages: (len(matched) + q.PageSize - 1) / q.PageSize,
	}
	// Checked before multiplying so huge page numbers cannot overflow.
	if q.Page > page.TotalPages {
		return page
	}
	start := (q.Page - 1) * q.PageSize
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	page.Items = matched[start:end]
	return page
}
