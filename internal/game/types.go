// internal/game/types.go
//
// Core type definitions for the Numble game engine.
// Defines:
//   - Mark: per-digit result of a guess (correct/present/absent).
//   - State: session lifecycle (active → won | lost).
//   - GuessRecord, Session, Rules and the values returned by engine operations.

package game

import (
	"errors"
	"time"
)

// Mark represents the evaluation result for a single digit in a guess.
//   - "correct": digit is in the target at this position.
//   - "present": digit occurs in the target at another, unmatched position.
//   - "absent":  digit has no remaining occurrence in the target.
type Mark string

const (
	MarkCorrect Mark = "correct"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

// State is the coarse lifecycle state of a session.
type State string

const (
	StateActive State = "active"
	StateWon    State = "won"
	StateLost   State = "lost"
)

// Finished reports whether s is terminal.
func (s State) Finished() bool { return s == StateWon || s == StateLost }

const (
	// Digits is the guess/target length.
	Digits = 5
	// DefaultMaxAttempts bounds a session's history.
	DefaultMaxAttempts = 10
	// DefaultMaxHints is the hint budget per session.
	DefaultMaxHints = 1
	// DefaultHintUnlockAfter is the number of guesses needed before hints open.
	DefaultHintUnlockAfter = 3
)

// Rules parameterize a session. The zero value is not valid; use DefaultRules.
type Rules struct {
	MaxAttempts     int `json:"maxAttempts" yaml:"max_attempts"`
	MaxHints        int `json:"maxHints" yaml:"max_hints"`
	HintUnlockAfter int `json:"hintUnlockAfter" yaml:"hint_unlock_after"`
}

// DefaultRules returns the classic rule set: 10 attempts, 1 hint after 3 guesses.
func DefaultRules() Rules {
	return Rules{
		MaxAttempts:     DefaultMaxAttempts,
		MaxHints:        DefaultMaxHints,
		HintUnlockAfter: DefaultHintUnlockAfter,
	}
}

// Validate checks that the rules describe a playable game.
func (r Rules) Validate() error {
	switch {
	case r.MaxAttempts < 1:
		return errors.New("game: max attempts must be at least 1")
	case r.MaxHints < 0:
		return errors.New("game: max hints must not be negative")
	case r.HintUnlockAfter < 0:
		return errors.New("game: hint unlock threshold must not be negative")
	}
	return nil
}

// GuessRecord is one scored guess. Immutable once appended.
type GuessRecord struct {
	Guess    string `json:"guess"`
	Feedback []Mark `json:"feedback"`
}

// Session holds the state of a single player's puzzle.
// A Session is not safe for concurrent use; the session store serializes access.
type Session struct {
	ID        string        // opaque identifier (cookie subject)
	Target    string        // the prime to guess
	Date      string        // YYYY-MM-DD for daily puzzles, "" for random ones
	Rules     Rules         // limits in force for this session
	History   []GuessRecord // append-only, len <= Rules.MaxAttempts
	HintsUsed int           // never exceeds Rules.MaxHints
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome is returned by SubmitGuess.
type Outcome struct {
	Guess    string `json:"guess"`
	Feedback []Mark `json:"feedback"`
	State    State  `json:"state"`
	Attempts int    `json:"attempts"`
	Share    string `json:"share,omitempty"`  // set on win
	Target   string `json:"target,omitempty"` // set on loss
}

// HintStatus enumerates RequestHint results.
type HintStatus string

const (
	HintRevealed      HintStatus = "revealed"
	HintExhausted     HintStatus = "exhausted"
	HintLocked        HintStatus = "locked"
	HintFullyRevealed HintStatus = "fully_revealed"
)

// Hint is returned by RequestHint. Position (1-indexed) and Digit are set
// only when Status is HintRevealed.
type Hint struct {
	Status   HintStatus `json:"status"`
	Position int        `json:"position,omitempty"`
	Digit    string     `json:"digit,omitempty"`
}

// Snapshot is a read-only view of a session safe to hand to clients.
// Target is only populated once the session has finished.
type Snapshot struct {
	Date        string        `json:"date,omitempty"`
	State       State         `json:"state"`
	History     []GuessRecord `json:"history"`
	MaxAttempts int           `json:"maxAttempts"`
	HintsLeft   int           `json:"hintsLeft"`
	Target      string        `json:"target,omitempty"`
	Share       string        `json:"share,omitempty"`
}

var (
	// ErrInvalidFormat: guess is not exactly five decimal digits.
	ErrInvalidFormat = errors.New("invalid guess format")
	// ErrNotPrime: guess is well-formed but not prime.
	ErrNotPrime = errors.New("guess is not prime")
	// ErrNoAttemptsLeft: the session is already won or lost.
	ErrNoAttemptsLeft = errors.New("no attempts left")
)
