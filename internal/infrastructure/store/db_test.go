package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"postgres numbers placeholders", Postgres, "UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?", "UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $3"},
		{"postgres without placeholders", Postgres, "SELECT 1", "SELECT 1"},
		{"sqlite unchanged", SQLite, "SELECT stock FROM products WHERE id = ?", "SELECT stock FROM products WHERE id = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.Rebind(tt.query))
		})
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = ParseDialect(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, SQLite))
	require.NoError(t, Migrate(ctx, db, SQLite))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sales").Scan(&n))
	assert.Equal(t, 0, n)
}
