package http

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"fluxo/internal/core"
	"fluxo/internal/report"
)

func TestParseMonthParams(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		wantOK  bool
		wantErr bool
		want    MonthParams
	}{
		{name: "absent", query: url.Values{}},
		{name: "both present", query: url.Values{"year": {"2024"}, "month": {"6"}}, wantOK: true, want: MonthParams{2024, 6}},
		{name: "year only", query: url.Values{"year": {"2024"}}, wantErr: true},
		{name: "month out of range", query: url.Values{"year": {"2024"}, "month": {"13"}}, wantErr: true},
		{name: "not a number", query: url.Values{"year": {"abc"}, "month": {"1"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseMonthParams(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var br badRequestError
				if !errors.As(err, &br) {
					t.Fatalf("expected badRequestError, got %T", err)
				}
				return
			}
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("got %+v ok=%v, want %+v ok=%v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	rng, err := ParsePeriod(url.Values{"year": {"2024"}, "month": {"2"}})
	if err != nil {
		t.Fatalf("ParsePeriod: %v", err)
	}
	if rng.From.String() != "2024-02-01" || rng.To.String() != "2024-02-29" {
		t.Fatalf("range = %s..%s", rng.From, rng.To)
	}

	if _, err := ParsePeriod(url.Values{"year": {"2024"}, "month": {"2"}, "from": {"2024-01-01"}}); err == nil {
		t.Fatalf("expected error when mixing from with year/month")
	}

	rng, err = ParsePeriod(url.Values{})
	if err != nil || !rng.IsUnbounded() {
		t.Fatalf("empty query should be unbounded, got %+v err=%v", rng, err)
	}
}

func TestParseDateRangeErrors(t *testing.T) {
	_, err := ParseDateRange(url.Values{"from": {"2024-02-30"}})
	var br badRequestError
	if !errors.As(err, &br) {
		t.Fatalf("malformed date should be a bad request, got %v", err)
	}

	_, err = ParseDateRange(url.Values{"from": {"2024-03-01"}, "to": {"2024-02-01"}})
	if !errors.Is(err, report.ErrInvertedRange) {
		t.Fatalf("inverted range should surface ErrInvertedRange, got %v", err)
	}
}

func TestParseTableQuery(t *testing.T) {
	q, err := ParseTableQuery(url.Values{
		"search":   {"  Coffee\x00 "},
		"type":     {"Expense"},
		"category": {"Food"},
		"page":     {"2"},
		"pageSize": {"25"},
	})
	if err != nil {
		t.Fatalf("ParseTableQuery: %v", err)
	}
	want := report.TableQuery{Search: "Coffee", Type: report.FilterExpense, Category: "Food", Page: 2, PageSize: 25}
	if q != want {
		t.Fatalf("got %+v, want %+v", q, want)
	}

	for _, bad := range []url.Values{
		{"page": {"0"}},
		{"pageSize": {"ten"}},
		{"type": {"transfer"}},
	} {
		if _, err := ParseTableQuery(bad); err == nil {
			t.Errorf("expected error for %v", bad)
		}
	}
}

func TestAmountInput(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"amount":"12,50"}`, "12,50"},
		{`{"amount":12.5}`, "12.5"},
		{`{"amount":"7"}`, "7"},
	}
	for _, tt := range tests {
		var req createTransactionRequest
		if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.body, err)
		}
		if string(req.Amount) != tt.want {
			t.Errorf("amount = %q, want %q", req.Amount, tt.want)
		}
	}

	var req createTransactionRequest
	if err := json.Unmarshal([]byte(`{"amount":true}`), &req); err == nil {
		t.Errorf("expected error for boolean amount")
	}
}

func TestCreateRequestToInput(t *testing.T) {
	req := createTransactionRequest{
		Description: " Salary ",
		Amount:      "1500,00",
		Type:        "INCOME",
		Category:    "Work",
		Date:        "2024-01-05",
	}
	in, err := req.toInput()
	if err != nil {
		t.Fatalf("toInput: %v", err)
	}
	if in.Type != core.Income || in.Amount.StringFixed(2) != "1500.00" || in.Description != "Salary" {
		t.Fatalf("unexpected input %+v", in)
	}

	req.Amount = "-5"
	if _, err := req.toInput(); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative amount: got %v", err)
	}
	req.Amount = "5"
	req.Type = "transfer"
	if _, err := req.toInput(); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("bad type: got %v", err)
	}
}

func TestPatchRequestToPatch(t *testing.T) {
	date := "2024-1-5"
	p, err := patchTransactionRequest{Date: &date}.toPatch()
	if err != nil {
		t.Fatalf("toPatch: %v", err)
	}
	if p.Date == nil || *p.Date != "2024-01-05" {
		t.Fatalf("date not canonicalized: %v", p.Date)
	}
	if p.Description != nil || p.Amount != nil || p.Type != nil || p.Category != nil {
		t.Fatalf("unset fields must stay nil: %+v", p)
	}

	bad := "2024-02-30"
	if _, err := (patchTransactionRequest{Date: &bad}).toPatch(); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("bad date: got %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x01b\tc\n "); got != "ab\tc" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
