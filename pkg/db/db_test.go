package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	local, err := Open(ctx, MemoryPath)
	require.NoError(t, err)
	t.Cleanup(local.Close)

	// schema is idempotent
	require.NoError(t, CreateTables(ctx, local.DB))

	var n int
	err = local.DB.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name LIKE 'workflow%'").Scan(&n)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestOpen_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scanflow.db")
	local, err := Open(ctx, path)
	require.NoError(t, err)
	local.Close()

	// reopening an existing file keeps working
	local, err = Open(ctx, path)
	require.NoError(t, err)
	local.Close()
}

func TestCreateTables_Nil(t *testing.T) {
	require.Error(t, CreateTables(context.Background(), nil))
}
