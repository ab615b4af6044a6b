package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxo/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory"})
	require.NoError(t, err)
	assert.Equal(t, Memory, cfg.Type)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestOpenMemory(t *testing.T) {
	res, err := Open(Config{Type: Memory}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Ready)

	txs, err := res.Store.ListTransactions(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.NoError(t, res.Cleanup())
}

func TestOpenSQLite(t *testing.T) {
	res, err := Open(Config{Type: SQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "fluxo.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	require.NotNil(t, res.Ready)
	assert.NoError(t, res.Ready.Ping(context.Background()))
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(Config{Type: "postgres"}, nil)
	assert.Error(t, err)
}
