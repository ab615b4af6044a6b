package core

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

const (
	minDescriptionLen = 2
	maxDescriptionLen = 200
	minCategoryLen    = 2
)

type (
	TransactionType string

	// Date is a calendar day pinned to midnight UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          uuid.UUID
		UserID      string
		Description string
		Amount      decimal.Decimal
		Type        TransactionType
		Category    string
		Date        string // YYYY-MM-DD, kept as text to avoid timezone shifts
		CreatedAt   time.Time
	}

	CreateTransactionInput struct {
		Description string
		Amount      decimal.Decimal
		Type        TransactionType
		Category    string
		Date        string
	}

	// TransactionPatch carries a partial update; nil fields are left untouched.
	TransactionPatch struct {
		Description *string
		Amount      *decimal.Decimal
		Type        *TransactionType
		Category    *string
		Date        *string
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrShortDescription   = errors.New("description must have at least 2 characters")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrShortCategory      = errors.New("category must have at least 2 characters")
	ErrEmptyPatch         = errors.New("nothing to update")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate builds a Date from a YYYY-MM-DD string using its numeric parts.
// Trailing time components ("2024-01-05T10:00:00Z") are ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, ErrInvalidDate
	}
	year, ok := datePart(parts[0], 4)
	if !ok || year < 1 {
		return Date{}, ErrInvalidDate
	}
	month, ok := datePart(parts[1], 2)
	if !ok || month < 1 || month > 12 {
		return Date{}, ErrInvalidDate
	}
	day, ok := datePart(parts[2], 2)
	if !ok || day < 1 {
		return Date{}, ErrInvalidDate
	}
	d := NewDate(year, month, day)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject it.
	if d.Day() != day || int(d.Month()) != month {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

// datePart parses an unsigned run of at most maxLen ASCII digits.
func datePart(s string, maxLen int) (int, bool) {
	if s == "" || len(s) > maxLen {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// DateOrToday parses s and falls back to today when it is malformed.
func DateOrToday(s string) (Date, bool) {
	d, err := ParseDate(s)
	if err != nil {
		return Today(), false
	}
	return d, true
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthStart returns the first day of the date's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// MonthEnd returns the last day of the date's month.
func (d Date) MonthEnd() Date {
	return Date{Time: d.MonthStart().AddDate(0, 1, -1)}
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// CalendarDate returns the parsed date and whether the stored text was valid.
func (t Transaction) CalendarDate() (Date, bool) {
	return DateOrToday(t.Date)
}

// Signed returns the amount with the sign implied by the type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

func validateDescription(s string) error {
	n := len([]rune(strings.TrimSpace(s)))
	if n < minDescriptionLen {
		return ErrShortDescription
	}
	if n > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateCategory(s string) error {
	if len([]rune(strings.TrimSpace(s))) < minCategoryLen {
		return ErrShortCategory
	}
	return nil
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (in CreateTransactionInput) Validate() error {
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if !in.Type.IsValid() {
		return ErrInvalidType
	}
	if err := validateCategory(in.Category); err != nil {
		return err
	}
	if _, err := ParseDate(in.Date); err != nil {
		return err
	}
	return nil
}

// Normalize trims free text and canonicalizes the date.
func (in CreateTransactionInput) Normalize() CreateTransactionInput {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if d, err := ParseDate(in.Date); err == nil {
		in.Date = d.String()
	}
	return in
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Type == nil && p.Category == nil && p.Date == nil
}

func (p TransactionPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Type != nil && !p.Type.IsValid() {
		return ErrInvalidType
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Date != nil {
		if _, err := ParseDate(*p.Date); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns t with the patch fields written over it.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.Date != nil {
		if d, err := ParseDate(*p.Date); err == nil {
			t.Date = d.String()
		}
	}
	return t
}
