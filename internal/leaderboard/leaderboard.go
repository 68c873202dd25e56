// Package leaderboard records how many attempts each winning player needed,
// grouped by puzzle date.
//
// Two backends implement Store: an in-memory map for development and tests,
// and a database/sql backend (sqlite or postgres) for deployments. Both treat
// Append as a single atomic insert; there is no read-modify-write.
package leaderboard

import (
	"context"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// Entry is one completed win.
type Entry struct {
	Date     string `json:"date"`     // YYYY-MM-DD
	Attempts int    `json:"attempts"` // guesses used, including the winning one
	Player   string `json:"-"`        // anonymised player key, see PlayerKey
}

// Store is the leaderboard persistence contract.
type Store interface {
	// Append records one win. Safe for concurrent use.
	Append(ctx context.Context, e Entry) error
	// Query returns the attempt counts recorded for date, in insertion order.
	// The result is empty (never nil) when nothing was recorded.
	Query(ctx context.Context, date string) ([]int, error)
}

// ErrInvalidEntry rejects entries without a date or with a non-positive count.
var ErrInvalidEntry = errors.New("leaderboard: invalid entry")

func (e Entry) validate() error {
	if e.Date == "" || e.Attempts < 1 {
		return ErrInvalidEntry
	}
	return nil
}

// Summary aggregates a day's results.
type Summary struct {
	Wins      int     `json:"wins"`
	Best      int     `json:"best,omitempty"`
	Mean      float64 `json:"mean,omitempty"`
	Histogram []int   `json:"histogram"` // Histogram[i] counts wins in i+1 attempts
}

// Summarize builds a Summary over attempts; counts above maxAttempts are
// clamped into the last bucket.
func Summarize(attempts []int, maxAttempts int) Summary {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	s := Summary{Histogram: make([]int, maxAttempts)}
	total := 0
	for _, a := range attempts {
		if a < 1 {
			continue
		}
		s.Wins++
		total += a
		if s.Best == 0 || a < s.Best {
			s.Best = a
		}
		b := a
		if b > maxAttempts {
			b = maxAttempts
		}
		s.Histogram[b-1]++
	}
	if s.Wins > 0 {
		s.Mean = float64(total) / float64(s.Wins)
	}
	return s
}

// PlayerKey derives a stable, non-reversible key for a session ID so that raw
// session identifiers never reach the leaderboard table.
func PlayerKey(secret []byte, sessionID string) string {
	key := blake2b.Sum256(secret)
	h, err := blake2b.New(16, key[:])
	if err != nil {
		return ""
	}
	h.Write([]byte(sessionID))
	return hex.EncodeToString(h.Sum(nil))
}
