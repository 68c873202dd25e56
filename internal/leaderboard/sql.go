package leaderboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/robalobadob/numble/internal/database"
)

// SQL is a database/sql Store backed by the leaderboard_entries table.
// It also persists the prime catalog (prime_catalog) so restarts skip the
// sieve; see primes.Cache.
type SQL struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewSQL wraps an already migrated database.
func NewSQL(db *sql.DB, d database.Dialect) *SQL {
	return &SQL{db: db, dialect: d}
}

func (s *SQL) q(query string) string { return database.Rebind(s.dialect, query) }

// Append inserts one row per win; concurrent writers never overwrite each other.
func (s *SQL) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO leaderboard_entries (date, attempts, player) VALUES (?, ?, ?)`),
		e.Date, e.Attempts, e.Player,
	)
	if err != nil {
		return fmt.Errorf("leaderboard append: %w", err)
	}
	return nil
}

// Query returns attempt counts for date in insertion order.
func (s *SQL) Query(ctx context.Context, date string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT attempts FROM leaderboard_entries WHERE date = ? ORDER BY id ASC`), date)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// LoadCatalog returns the cached primes in position order, or nil when the
// cache is empty.
func (s *SQL) LoadCatalog(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT prime FROM prime_catalog ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("catalog query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("catalog scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StoreCatalog replaces the cached catalog in a single transaction.
func (s *SQL) StoreCatalog(ctx context.Context, list []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prime_catalog`); err != nil {
		return fmt.Errorf("catalog clear: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO prime_catalog (position, prime) VALUES (?, ?)`))
	if err != nil {
		return fmt.Errorf("catalog prepare: %w", err)
	}
	defer stmt.Close()
	for i, p := range list {
		if _, err := stmt.ExecContext(ctx, i, p); err != nil {
			return fmt.Errorf("catalog insert %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog commit: %w", err)
	}
	return nil
}
