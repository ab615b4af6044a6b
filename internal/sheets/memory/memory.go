package memory

import (
	"context"
	"sync"

	"fluxo/internal/core"
	"fluxo/internal/sheets"
)

var _ sheets.TransactionMirror = (*Mirror)(nil)

// Mirror keeps mirror rows in process memory, in sheet order.
type Mirror struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) indexOf(id string) int {
	for i, r := range m.rows {
		if len(r) > 0 && r[0] == id {
			return i
		}
	}
	return -1
}

func (m *Mirror) UpsertTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := sheets.Row(t)
	if i := m.indexOf(row[0]); i >= 0 {
		m.rows[i] = row
		return nil
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *Mirror) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(id); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

func (m *Mirror) ReplaceAll(_ context.Context, txs []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = make([][]string, 0, len(txs))
	for _, t := range txs {
		m.rows = append(m.rows, sheets.Row(t))
	}
	return nil
}

// Rows returns a copy of the current rows.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Row returns the row of id.
func (m *Mirror) Row(id string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(id); i >= 0 {
		return append([]string(nil), m.rows[i]...), true
	}
	return nil, false
}
