package http

import (
	"net/http"

	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/report"
)

const opReport = "report"

// periodTransactions loads the user's transactions restricted to rng.
func (s *Server) periodTransactions(w http.ResponseWriter, r *http.Request, rng report.DateRange) ([]core.Transaction, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return nil, false
	}
	txs, err := s.deps.Transactions.ListTransactions(r.Context(), uid)
	if err != nil {
		writeError(w, r, opReport, err)
		return nil, false
	}
	return report.FilterByDate(txs, rng), true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := ParsePeriod(r.URL.Query())
	if err != nil {
		writeError(w, r, opReport, err)
		return
	}
	txs, ok := s.periodTransactions(w, r, rng)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(txs))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	g, err := report.ParseGranularity(query.Get("granularity"))
	if err != nil {
		writeError(w, r, opReport, badRequest("%v", err))
		return
	}
	size, err := parsePositiveInt(query, "preview")
	if err != nil {
		writeError(w, r, opReport, err)
		return
	}
	if size == 0 {
		size = report.DefaultPreviewSize
	}
	rng, err := ParseDateRange(query)
	if err != nil {
		writeError(w, r, opReport, err)
		return
	}
	txs, ok := s.periodTransactions(w, r, rng)
	if !ok {
		return
	}

	logger := log.FromContext(r.Context()).WithComponent(log.ComponentReport)
	buckets := report.Buckets(txs, g, report.WithBadDateHook(func(t core.Transaction) {
		logger.WarnContext(r.Context(), "Transaction has a malformed date, bucketed as today",
			log.FieldTxID, t.ID.String(), log.FieldTxDate, t.Date)
	}))

	out := make([]bucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketResponse{
			Bucket:      b,
			IncomeHead:  b.IncomePreview(size),
			ExpenseHead: b.ExpensePreview(size),
		})
	}
	writeJSON(w, http.StatusOK, balanceResponse{Granularity: g, Buckets: out})
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f, err := parseTypeFilter(query, report.FilterExpense)
	if err != nil {
		writeError(w, r, opReport, err)
		return
	}
	rng, err := ParseDateRange(query)
	if err != nil {
		writeError(w, r, opReport, err)
		return
	}
	txs, ok := s.periodTransactions(w, r, rng)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Categories(txs, f))
}
