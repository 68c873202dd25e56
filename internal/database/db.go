// internal/database/db.go
//
// Database helpers for the Numble server.
// Responsibilities:
//   - Choosing a driver from DATABASE_URL (sqlite file path or postgres URL).
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the embedded per-dialect migrations with goose.
//   - Rewriting `?` placeholders for dialects that number their parameters.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numble/assets"
)

// Dialect identifies the SQL flavour behind a *sql.DB.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DialectFor infers the dialect from a DATABASE_URL value.
func DialectFor(url string) Dialect {
	u := strings.ToLower(url)
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open opens the database named by url and returns it with its dialect.
//
//   - postgres:// and postgresql:// URLs use the pgx stdlib driver.
//   - Anything else is a sqlite path; its parent directory is created and the
//     connection is configured with a busy timeout and WAL journaling.
func Open(ctx context.Context, url string) (*sql.DB, Dialect, error) {
	d := DialectFor(url)
	if d == Postgres {
		db, err := sql.Open("pgx", url)
		if err != nil {
			return nil, d, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, d, fmt.Errorf("ping postgres: %w", err)
		}
		return db, d, nil
	}

	// Ensure directory exists for ./data/numble.db, etc.
	dir := filepath.Dir(url)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, d, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", url+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, d, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, d, fmt.Errorf("set pragmas: %w", err)
	}
	return db, d, nil
}

// Migrate applies every pending embedded migration for the dialect.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	fsys, err := assets.Migrations(string(d))
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", d, err)
	}
	gd := goose.DialectSQLite3
	if d == Postgres {
		gd = goose.DialectPostgres
	}
	p, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("applied")
	}
	return nil
}

// Rebind rewrites `?` placeholders into `$1, $2, ...` for postgres. Queries
// for other dialects are returned unchanged. Question marks inside quoted
// literals are left alone.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
