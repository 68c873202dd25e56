package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	assert.Equal(t, Postgres, DialectFor("postgres://u:p@localhost/numble"))
	assert.Equal(t, Postgres, DialectFor("POSTGRESQL://localhost/numble"))
	assert.Equal(t, SQLite, DialectFor("./data/numble.db"))
	assert.Equal(t, SQLite, DialectFor("numble.db"))
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO t (a, b) VALUES (?, ?)`
	assert.Equal(t, q, Rebind(SQLite, q))
	assert.Equal(t, `INSERT INTO t (a, b) VALUES ($1, $2)`, Rebind(Postgres, q))
	assert.Equal(t, `SELECT '?' FROM t WHERE a=$1`, Rebind(Postgres, `SELECT '?' FROM t WHERE a=?`))
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "numble.db")

	db, d, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, SQLite, d)

	require.NoError(t, Migrate(ctx, db, d))
	// second run is a no-op
	require.NoError(t, Migrate(ctx, db, d))

	for _, table := range []string{"leaderboard_entries", "prime_catalog"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}
