package http

import (
	"net/http"

	"fluxo/internal/log"
	"fluxo/internal/report"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	tq, err := ParseTableQuery(query)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	rng, err := ParseDateRange(query)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	txs, err := s.deps.Transactions.ListTransactions(r.Context(), uid)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	page := report.Paginate(report.FilterByDate(txs, rng), tq)
	writeJSON(w, http.StatusOK, tablePageResponse{
		Items:      newTransactionResponses(page.Items),
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}

	t, err := s.deps.Transactions.GetTransaction(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	t, err := s.deps.Transactions.CreateTransaction(r.Context(), uid, in)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).LogTransaction(r.Context(), log.OpCreate,
		uid, t.ID.String(), t.Type.String(), t.Amount.StringFixed(2), t.Category, t.Date)
	w.Header().Set("Location", "/api/transactions/"+t.ID.String())
	writeJSON(w, http.StatusCreated, newTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req patchTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	if err := s.deps.Transactions.UpdateTransaction(r.Context(), uid, id, patch); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentTx).InfoContext(r.Context(), "Transaction updated",
		log.FieldUserID, uid, log.FieldTxID, id.String())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}

	if err := s.deps.Transactions.DeleteTransaction(r.Context(), uid, id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentTx).InfoContext(r.Context(), "Transaction deleted",
		log.FieldUserID, uid, log.FieldTxID, id.String())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	f, err := parseTypeFilter(r.URL.Query(), report.FilterAll)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	txs, err := s.deps.Transactions.ListTransactions(r.Context(), uid)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: report.DistinctCategories(txs, f)})
}
