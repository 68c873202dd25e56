package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/numble/internal/primes"
)

var now = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func marks(s string) []Mark {
	out := make([]Mark, len(s))
	for i, c := range s {
		switch c {
		case 'c':
			out[i] = MarkCorrect
		case 'p':
			out[i] = MarkPresent
		default:
			out[i] = MarkAbsent
		}
	}
	return out
}

func TestScore_Examples(t *testing.T) {
	cases := []struct {
		guess, target, want string
	}{
		{"12111", "11223", "cpaap"},
		{"11223", "11223", "ccccc"},
		{"45678", "11223", "aaaaa"},
		{"32211", "11223", "ppcpp"},
		{"11111", "10007", "caaaa"},
		{"70001", "10007", "pcccp"},
	}
	for _, tc := range cases {
		assert.Equal(t, marks(tc.want), Score(tc.guess, tc.target), "%s vs %s", tc.guess, tc.target)
	}
}

func TestScore_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randDigits := func() string {
		b := make([]byte, Digits)
		for i := range b {
			b[i] = byte('0' + rng.Intn(4)) // small alphabet forces repeats
		}
		return string(b)
	}
	for iter := 0; iter < 5000; iter++ {
		g, tg := randDigits(), randDigits()
		fb := Score(g, tg)
		require.Len(t, fb, Digits)

		used := map[byte]int{}
		occ := map[byte]int{}
		for i := 0; i < Digits; i++ {
			occ[tg[i]]++
			require.Equal(t, g[i] == tg[i], fb[i] == MarkCorrect, "pos %d of %s/%s", i, g, tg)
			if fb[i] != MarkAbsent {
				used[g[i]]++
			}
		}
		for d, n := range used {
			require.LessOrEqual(t, n, occ[d], "digit %c in %s/%s", d, g, tg)
		}
	}
}

func TestScore_SelfIsAllCorrect(t *testing.T) {
	for _, p := range primes.Default().All() {
		for _, m := range Score(p, p) {
			if m != MarkCorrect {
				t.Fatalf("Score(%s,%s) not all correct", p, p)
			}
		}
	}
}

func nonTargets(target string, n int) []string {
	var out []string
	for _, p := range primes.Default().All() {
		if p != target {
			out = append(out, p)
		}
		if len(out) == n {
			break
		}
	}
	return out
}

func TestSubmitGuess_Validation(t *testing.T) {
	s := NewSession("s1", "10007", "", DefaultRules(), now)

	for _, bad := range []string{"", "1234", "123456", "12a45", "-1234", "1 234"} {
		_, err := s.SubmitGuess(bad, now)
		assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", bad)
	}
	_, err := s.SubmitGuess("10000", now)
	assert.ErrorIs(t, err, ErrNotPrime)
	_, err = s.SubmitGuess("99999", now)
	assert.ErrorIs(t, err, ErrNotPrime)
	assert.Empty(t, s.History)

	for _, padded := range []string{" 10009", "10009\n", "\t10009 ", " 10009 "} {
		_, err := s.SubmitGuess(padded, now)
		assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", padded)
	}
	assert.Empty(t, s.History)

	out, err := s.SubmitGuess("10009", now)
	require.NoError(t, err)
	assert.Equal(t, "10009", out.Guess)
	assert.Equal(t, marks("cccca"), out.Feedback)
	assert.Equal(t, StateActive, out.State)
	assert.Equal(t, 1, out.Attempts)
}

func TestSubmitGuess_FormatCheckedBeforeState(t *testing.T) {
	s := NewSession("s1", "10007", "", DefaultRules(), now)
	_, err := s.SubmitGuess("10007", now)
	require.NoError(t, err)

	_, err = s.SubmitGuess("abc", now)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = s.SubmitGuess("10000", now)
	assert.ErrorIs(t, err, ErrNotPrime)
	_, err = s.SubmitGuess("10009", now)
	assert.ErrorIs(t, err, ErrNoAttemptsLeft)
}

func TestSubmitGuess_LostAfterMaxAttempts(t *testing.T) {
	s := NewSession("s1", "10007", "", DefaultRules(), now)
	guesses := nonTargets("10007", DefaultMaxAttempts)
	var out Outcome
	for i, g := range guesses {
		var err error
		out, err = s.SubmitGuess(g, now)
		require.NoError(t, err)
		if i < len(guesses)-1 {
			require.Equal(t, StateActive, out.State)
		}
	}
	assert.Equal(t, StateLost, out.State)
	assert.Equal(t, "10007", out.Target)
	assert.Empty(t, out.Share)
	assert.Equal(t, StateLost, s.State())

	_, err := s.SubmitGuess("10007", now)
	assert.ErrorIs(t, err, ErrNoAttemptsLeft)
	assert.Len(t, s.History, DefaultMaxAttempts)
}

func TestSubmitGuess_WinOnLastAttempt(t *testing.T) {
	s := NewSession("s1", "10007", "2025-01-02", DefaultRules(), now)
	for _, g := range nonTargets("10007", DefaultMaxAttempts-1) {
		_, err := s.SubmitGuess(g, now)
		require.NoError(t, err)
	}
	out, err := s.SubmitGuess("10007", now)
	require.NoError(t, err)
	assert.Equal(t, StateWon, out.State)
	assert.Equal(t, DefaultMaxAttempts, out.Attempts)
}

func TestSubmitGuess_WinShareString(t *testing.T) {
	s := NewSession("s1", "10007", "", DefaultRules(), now)
	_, err := s.SubmitGuess("70001", now) // present first
	require.NoError(t, err)
	_, err = s.SubmitGuess("20011", now) // absent first
	require.NoError(t, err)
	out, err := s.SubmitGuess("10007", now)
	require.NoError(t, err)

	assert.Equal(t, StateWon, out.State)
	assert.Equal(t, "[p][a][c]", out.Share)
	assert.Equal(t, out.Share, s.Share())
	assert.Empty(t, out.Target)
}

func TestRequestHint_Order(t *testing.T) {
	s := NewSession("s1", "10007", "", DefaultRules(), now)

	assert.Equal(t, HintLocked, s.RequestHint(nil, now).Status)
	for _, g := range []string{"20011", "30011", "40009"} {
		_, err := s.SubmitGuess(g, now)
		require.NoError(t, err)
		if len(s.History) < 3 {
			assert.Equal(t, HintLocked, s.RequestHint(nil, now).Status)
		}
	}
	assert.Equal(t, 0, s.HintsUsed)

	h := s.RequestHint(func(n int) int { return 0 }, now)
	require.Equal(t, HintRevealed, h.Status)
	assert.Equal(t, 1, h.Position)
	assert.Equal(t, "1", h.Digit)
	assert.Equal(t, 1, s.HintsUsed)

	assert.Equal(t, HintExhausted, s.RequestHint(nil, now).Status)
	assert.Equal(t, 1, s.HintsUsed)
}

func TestRequestHint_OnlyUnsolvedPositions(t *testing.T) {
	s := NewSession("s1", "10007", "", DefaultRules(), now)
	for _, g := range []string{"10009", "10009", "10009"} {
		_, err := s.SubmitGuess(g, now)
		require.NoError(t, err)
	}
	var seen []int
	h := s.RequestHint(func(n int) int {
		seen = append(seen, n)
		return n - 1
	}, now)
	require.Equal(t, HintRevealed, h.Status)
	assert.Equal(t, []int{1}, seen)
	assert.Equal(t, 5, h.Position)
	assert.Equal(t, "7", h.Digit)
}

func TestRequestHint_FullyRevealed(t *testing.T) {
	s := NewSession("s1", "10007", "", DefaultRules(), now)
	for _, g := range []string{"10009", "10037", "10039"} {
		_, err := s.SubmitGuess(g, now)
		require.NoError(t, err)
	}
	h := s.RequestHint(nil, now)
	assert.Equal(t, HintFullyRevealed, h.Status)
	assert.Equal(t, 0, s.HintsUsed)
}

func TestRequestHint_RandomPickIsInRange(t *testing.T) {
	for i := 0; i < 20; i++ {
		s := NewSession("s1", "10007", "", DefaultRules(), now)
		for _, g := range []string{"23459", "23459", "23459"} {
			_, err := s.SubmitGuess(g, now)
			require.NoError(t, err)
		}
		h := s.RequestHint(nil, now)
		require.Equal(t, HintRevealed, h.Status)
		require.GreaterOrEqual(t, h.Position, 1)
		require.LessOrEqual(t, h.Position, Digits)
		assert.Equal(t, string("10007"[h.Position-1]), h.Digit)
	}
}

func TestSnapshot_HidesTargetWhileActive(t *testing.T) {
	s := NewSession("s1", "10007", "2025-01-02", DefaultRules(), now)
	_, err := s.SubmitGuess("10009", now)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StateActive, snap.State)
	assert.Empty(t, snap.Target)
	assert.Equal(t, 1, snap.HintsLeft)
	assert.Equal(t, "2025-01-02", snap.Date)
	require.Len(t, snap.History, 1)

	_, err = s.SubmitGuess("10007", now)
	require.NoError(t, err)
	snap = s.Snapshot()
	assert.Equal(t, StateWon, snap.State)
	assert.Equal(t, "10007", snap.Target)
	assert.Equal(t, "[c][c]", snap.Share)
}

func TestNewSession_InvalidRulesFallBack(t *testing.T) {
	s := NewSession("s1", "10007", "", Rules{}, now)
	assert.Equal(t, DefaultRules(), s.Rules)

	custom := Rules{MaxAttempts: 2, MaxHints: 0, HintUnlockAfter: 0}
	s = NewSession("s2", "10007", "", custom, now)
	assert.Equal(t, custom, s.Rules)
	assert.Equal(t, HintExhausted, s.RequestHint(nil, now).Status)
}
