package leaderboard

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]int{3, 5, 3, 12, 0}, 10)
	assert.Equal(t, 4, s.Wins)
	assert.Equal(t, 3, s.Best)
	assert.InDelta(t, 23.0/4.0, s.Mean, 1e-9)
	require.Len(t, s.Histogram, 10)
	assert.Equal(t, 2, s.Histogram[2])
	assert.Equal(t, 1, s.Histogram[4])
	assert.Equal(t, 1, s.Histogram[9])

	empty := Summarize(nil, 10)
	assert.Equal(t, 0, empty.Wins)
	assert.Zero(t, empty.Mean)
	assert.Len(t, empty.Histogram, 10)
}

func TestPlayerKey(t *testing.T) {
	a := PlayerKey([]byte("secret"), "session-1")
	assert.Len(t, a, 32)
	assert.Equal(t, a, PlayerKey([]byte("secret"), "session-1"))
	assert.NotEqual(t, a, PlayerKey([]byte("secret"), "session-2"))
	assert.NotEqual(t, a, PlayerKey([]byte("other"), "session-1"))
	assert.NotContains(t, a, "session")
}

func TestMemory_AppendQuery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.Query(ctx, "2025-01-01")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, m.Append(ctx, Entry{Date: "2025-01-01", Attempts: 4}))
	require.NoError(t, m.Append(ctx, Entry{Date: "2025-01-01", Attempts: 2}))
	require.NoError(t, m.Append(ctx, Entry{Date: "2025-01-02", Attempts: 7}))

	got, err = m.Query(ctx, "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, got)
}

func TestMemory_RejectsInvalid(t *testing.T) {
	m := NewMemory()
	assert.ErrorIs(t, m.Append(context.Background(), Entry{Date: "", Attempts: 1}), ErrInvalidEntry)
	assert.ErrorIs(t, m.Append(context.Background(), Entry{Date: "2025-01-01", Attempts: 0}), ErrInvalidEntry)
}

func TestMemory_ConcurrentAppendsLoseNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = m.Append(ctx, Entry{Date: "2025-01-01", Attempts: n%10 + 1})
		}(i)
	}
	wg.Wait()
	got, err := m.Query(ctx, "2025-01-01")
	require.NoError(t, err)
	assert.Len(t, got, 200)
}
