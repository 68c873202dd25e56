// internal/game/engine.go
//
// Core game engine for a single Numble session.
// Responsibilities:
//   - Create sessions bound to a target prime and a rule set.
//   - Validate and apply guesses (shape, primality, remaining attempts).
//   - Score guesses using the two-pass multiset algorithm.
//   - Track state transitions: active → won/lost.
//   - Reveal at most one unsolved digit as a hint.
//
// Notes:
//   - The engine has no I/O; leaderboard appends and persistence happen in
//     the caller once SubmitGuess reports a win.
//   - Primality is checked arithmetically; the catalog holds exactly the
//     same set, so no catalog is needed to validate a guess.
package game

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/robalobadob/numble/internal/primes"
)

// NewSession constructs a session for target. Zero-value rules fall back to
// DefaultRules.
func NewSession(id, target, date string, rules Rules, now time.Time) *Session {
	if rules.Validate() != nil {
		rules = DefaultRules()
	}
	return &Session{
		ID:        id,
		Target:    target,
		Date:      date,
		Rules:     rules,
		History:   []GuessRecord{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State derives the lifecycle state from history.
func (s *Session) State() State {
	n := len(s.History)
	if n > 0 && s.History[n-1].Guess == s.Target {
		return StateWon
	}
	if n >= s.Rules.MaxAttempts {
		return StateLost
	}
	return StateActive
}

// SubmitGuess validates and scores a guess, appending it to history.
//
// Validation order (first failure wins):
//   - exactly Digits decimal digits, else ErrInvalidFormat;
//   - prime, else ErrNotPrime;
//   - session still active, else ErrNoAttemptsLeft.
func (s *Session) SubmitGuess(guess string, now time.Time) (Outcome, error) {
	if len(guess) != Digits || !isDigits(guess) {
		return Outcome{}, ErrInvalidFormat
	}
	n, _ := strconv.Atoi(guess)
	if !primes.IsPrime(n) {
		return Outcome{}, ErrNotPrime
	}
	if s.State() != StateActive {
		return Outcome{}, ErrNoAttemptsLeft
	}

	fb := Score(guess, s.Target)
	s.History = append(s.History, GuessRecord{Guess: guess, Feedback: fb})
	s.UpdatedAt = now

	out := Outcome{
		Guess:    guess,
		Feedback: fb,
		State:    s.State(),
		Attempts: len(s.History),
	}
	switch out.State {
	case StateWon:
		out.Share = s.Share()
	case StateLost:
		out.Target = s.Target
	}
	return out, nil
}

// Share returns the compact share string: for each guess in order, the
// first character of its first mark wrapped in brackets, e.g. "[a][p][c]".
func (s *Session) Share() string {
	var b strings.Builder
	for _, rec := range s.History {
		if len(rec.Feedback) == 0 || rec.Feedback[0] == "" {
			continue
		}
		b.WriteByte('[')
		b.WriteByte(rec.Feedback[0][0])
		b.WriteByte(']')
	}
	return b.String()
}

// Picker returns a uniform index in [0, n).
type Picker func(n int) int

// RequestHint reveals one digit that no previous guess placed correctly.
//
// Checked in order: budget exhausted → HintExhausted; fewer than
// HintUnlockAfter guesses → HintLocked; no unsolved position →
// HintFullyRevealed. Only a HintRevealed result consumes budget.
// A nil pick uses crypto/rand.
func (s *Session) RequestHint(pick Picker, now time.Time) Hint {
	if s.HintsUsed >= s.Rules.MaxHints {
		return Hint{Status: HintExhausted}
	}
	if len(s.History) < s.Rules.HintUnlockAfter {
		return Hint{Status: HintLocked}
	}
	open := s.unsolved()
	if len(open) == 0 {
		return Hint{Status: HintFullyRevealed}
	}
	if pick == nil {
		pick = cryptoPick
	}
	i := open[pick(len(open))]
	s.HintsUsed++
	s.UpdatedAt = now
	return Hint{Status: HintRevealed, Position: i + 1, Digit: string(s.Target[i])}
}

// unsolved lists positions never marked correct in any guess.
func (s *Session) unsolved() []int {
	var out []int
	for i := 0; i < len(s.Target); i++ {
		solved := false
		for _, rec := range s.History {
			if i < len(rec.Feedback) && rec.Feedback[i] == MarkCorrect {
				solved = true
				break
			}
		}
		if !solved {
			out = append(out, i)
		}
	}
	return out
}

// Snapshot returns a client-safe copy of the session.
func (s *Session) Snapshot() Snapshot {
	st := s.State()
	snap := Snapshot{
		Date:        s.Date,
		State:       st,
		History:     append([]GuessRecord{}, s.History...),
		MaxAttempts: s.Rules.MaxAttempts,
		HintsLeft:   s.Rules.MaxHints - s.HintsUsed,
	}
	if st.Finished() {
		snap.Target = s.Target
	}
	if st == StateWon {
		snap.Share = s.Share()
	}
	return snap
}

// Score implements the two-pass feedback algorithm.
//
// Pass 1:
//   - Mark exact matches correct; count the target digits left unmatched.
//
// Pass 2:
//   - For each remaining guess digit: present if an unmatched occurrence is
//     left (consume it), absent otherwise.
//
// Exact matches must be resolved first or repeated digits are miscounted.
// Callers guarantee equal-length decimal strings.
func Score(guess, target string) []Mark {
	n := len(guess)
	res := make([]Mark, n)
	var counts [10]int

	for i := 0; i < n && i < len(target); i++ {
		if guess[i] == target[i] {
			res[i] = MarkCorrect
		} else if j := digit(target[i]); j >= 0 && j < 10 {
			counts[j]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkCorrect {
			continue
		}
		j := digit(guess[i])
		if j >= 0 && j < 10 && counts[j] > 0 {
			res[i] = MarkPresent
			counts[j]--
		} else {
			res[i] = MarkAbsent
		}
	}
	return res
}

// digit maps an ASCII digit to 0..9; other bytes fall outside that range.
func digit(b byte) int { return int(b) - '0' }

// isDigits reports whether s is all ASCII decimal digits.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func cryptoPick(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}
