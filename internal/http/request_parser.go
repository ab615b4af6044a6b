package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fluxo/internal/core"
	"fluxo/internal/report"
)

const maxBodyBytes = 64 << 10

// badRequestError marks input the server could not parse at all.
type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

// MonthParams holds an explicit year/month selection.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and month from the query. ok is false when
// neither is present.
func ParseMonthParams(query url.Values) (params MonthParams, ok bool, err error) {
	y := strings.TrimSpace(query.Get("year"))
	m := strings.TrimSpace(query.Get("month"))
	if y == "" && m == "" {
		return MonthParams{}, false, nil
	}
	if y == "" || m == "" {
		return MonthParams{}, false, badRequest("year and month must be given together")
	}
	if params.Year, err = strconv.Atoi(y); err != nil || params.Year < 1 {
		return MonthParams{}, false, badRequest("invalid year %q", y)
	}
	if params.Month, err = strconv.Atoi(m); err != nil || params.Month < 1 || params.Month > 12 {
		return MonthParams{}, false, badRequest("invalid month %q", m)
	}
	return params, true, nil
}

// ParseDateRange reads from/to; an inverted range is passed through as
// report.ErrInvertedRange.
func ParseDateRange(query url.Values) (report.DateRange, error) {
	rng, err := report.ParseDateRange(query.Get("from"), query.Get("to"))
	if err != nil {
		if errors.Is(err, report.ErrInvertedRange) {
			return report.DateRange{}, err
		}
		return report.DateRange{}, badRequest("invalid date range: %v", err)
	}
	return rng, nil
}

// ParsePeriod accepts either from/to or year/month, not both.
func ParsePeriod(query url.Values) (report.DateRange, error) {
	month, ok, err := ParseMonthParams(query)
	if err != nil {
		return report.DateRange{}, err
	}
	if !ok {
		return ParseDateRange(query)
	}
	if query.Get("from") != "" || query.Get("to") != "" {
		return report.DateRange{}, badRequest("use either from/to or year/month")
	}
	return report.MonthRange(month.Year, month.Month), nil
}

func parseTypeFilter(query url.Values, fallback report.TypeFilter) (report.TypeFilter, error) {
	f, err := report.ParseTypeFilter(query.Get("type"), fallback)
	if err != nil {
		return "", badRequest("%v", err)
	}
	return f, nil
}

func parsePositiveInt(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, badRequest("invalid %s %q", key, v)
	}
	return n, nil
}

// ParseTableQuery reads search, type, category, page and pageSize.
func ParseTableQuery(query url.Values) (report.TableQuery, error) {
	typ, err := parseTypeFilter(query, report.FilterAll)
	if err != nil {
		return report.TableQuery{}, err
	}
	page, err := parsePositiveInt(query, "page")
	if err != nil {
		return report.TableQuery{}, err
	}
	size, err := parsePositiveInt(query, "pageSize")
	if err != nil {
		return report.TableQuery{}, err
	}
	return report.TableQuery{
		Search:   sanitizeInput(query.Get("search")),
		Type:     typ,
		Category: sanitizeInput(query.Get("category")),
		Page:     page,
		PageSize: size,
	}, nil
}

func parseID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("invalid transaction id %q", raw)
	}
	return id, nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return badRequest("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("malformed JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// amountInput accepts an amount as a JSON string ("12,50") or number (12.5).
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number")
	}
	*a = amountInput(n.String())
	return nil
}

type createTransactionRequest struct {
	Description string      `json:"description"`
	Amount      amountInput `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
}

func (req createTransactionRequest) toInput() (core.CreateTransactionInput, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.CreateTransactionInput{}, err
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.CreateTransactionInput{}, err
	}
	return core.CreateTransactionInput{
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Type:        typ,
		Category:    sanitizeInput(req.Category),
		Date:        strings.TrimSpace(req.Date),
	}, nil
}

type patchTransactionRequest struct {
	Description *string      `json:"description"`
	Amount      *amountInput `json:"amount"`
	Type        *string      `json:"type"`
	Category    *string      `json:"category"`
	Date        *string      `json:"date"`
}

func (req patchTransactionRequest) toPatch() (core.TransactionPatch, error) {
	var p core.TransactionPatch
	if req.Description != nil {
		s := sanitizeInput(*req.Description)
		p.Description = &s
	}
	if req.Amount != nil {
		a, err := core.ParseAmount(string(*req.Amount))
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.Amount = &a
	}
	if req.Type != nil {
		t, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.Type = &t
	}
	if req.Category != nil {
		s := sanitizeInput(*req.Category)
		p.Category = &s
	}
	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		s := d.String()
		p.Date = &s
	}
	return p, nil
}

type avatarRequest struct {
	AvatarURL string `json:"avatarUrl"`
}
