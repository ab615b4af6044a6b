package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"fluxo/internal/core"
	ports "fluxo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.TransactionMirror = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client mirrors transactions into one sheet, one row per transaction with
// the id in column A.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Serializes lookups and writes so two upserts of a new id cannot both append.
	mu sync.Mutex
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets mirror ready",
		"component", "sheets",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if sheetName == "" {
		sheetName = "Transactions"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case cfg.ServiceAccountFile != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// newHTTPClientWithPooling reuses connections to the Sheets API host.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) rangeOf(cells string) string {
	return fmt.Sprintf("'%s'!%s", c.sheetName, cells)
}

func rowRange(row int) string {
	return fmt.Sprintf("A%d:F%d", row, row)
}

func toValues(rows ...[]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		cells := make([]interface{}, len(r))
		for j, v := range r {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

// findRow returns the 1-based sheet row holding id, or 0.
func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read id column: %w", err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if fmt.Sprint(row[0]) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (c *Client) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := t.ID.String()
	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: toValues(ports.Row(t))}
	if row > 0 {
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rangeOf(rowRange(row)), vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d: %w", row, err)
		}
		slog.DebugContext(ctx, "Mirror row updated", "component", "sheets", "transaction_id", id, "row", row)
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeOf("A:F"), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	slog.DebugContext(ctx, "Mirror row appended", "component", "sheets", "transaction_id", id)
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rangeOf(rowRange(row)), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d: %w", row, err)
	}
	slog.DebugContext(ctx, "Mirror row cleared", "component", "sheets", "transaction_id", id, "row", row)
	return nil
}

// ReplaceAll clears the sheet and writes the header followed by txs.
func (c *Client) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rangeOf("A:F"), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, ports.Header)
	for _, t := range txs {
		rows = append(rows, ports.Row(t))
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rangeOf("A1"), &gsheet.ValueRange{Values: toValues(rows...)}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	slog.InfoContext(ctx, "Mirror sheet rewritten", "component", "sheets", "count", len(txs))
	return nil
}
