package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fluxo/internal/auth"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/profile"
	"fluxo/internal/report"
	"fluxo/internal/storage"
)

const internalErrorMessage = "Something went wrong. Please try again."

// validationErrors are rejected as 422.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidType,
	core.ErrInvalidDate,
	core.ErrShortDescription,
	core.ErrDescriptionTooLong,
	core.ErrShortCategory,
	core.ErrEmptyPatch,
	profile.ErrInvalidAvatarURL,
	report.ErrInvertedRange,
}

type errorResponse struct {
	Error string `json:"error"`
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldComponent, log.ComponentHTTP, log.FieldError, err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps an error to its HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	var br badRequestError
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, br.msg
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity, v.Error()
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}

// writeError logs server-side failures and writes the JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if errors.Is(err, context.Canceled) {
		// The client hung up; there is nobody to answer.
		return
	}
	if status >= http.StatusInternalServerError {
		logger := log.FromContext(r.Context())
		fields := log.NewFields()
		if userID, uerr := auth.UserID(r.Context()); uerr == nil {
			fields = fields.WithUser(userID)
		}
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, fields)
	}
	writeMessage(w, status, msg)
}

type transactionResponse struct {
	ID          uuid.UUID            `json:"id"`
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount"`
	Type        core.TransactionType `json:"type"`
	Category    string               `json:"category"`
	Date        string               `json:"date"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		Category:    t.Category,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func newTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionResponse(t))
	}
	return out
}

type tablePageResponse struct {
	Items      []transactionResponse `json:"items"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	Total      int                   `json:"total"`
	TotalPages int                   `json:"totalPages"`
}

type bucketResponse struct {
	report.Bucket
	IncomeHead  report.Preview `json:"incomePreview"`
	ExpenseHead report.Preview `json:"expensePreview"`
}

type balanceResponse struct {
	Granularity report.Granularity `json:"granularity"`
	Buckets     []bucketResponse   `json:"buckets"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}
