package leaderboard

import (
	"context"
	"sync"
)

// Memory is a mutex-guarded in-process Store.
type Memory struct {
	mu     sync.RWMutex
	byDate map[string][]Entry
}

// NewMemory returns an empty in-memory leaderboard.
func NewMemory() *Memory {
	return &Memory{byDate: make(map[string][]Entry)}
}

func (m *Memory) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byDate[e.Date] = append(m.byDate[e.Date], e)
	return nil
}

func (m *Memory) Query(ctx context.Context, date string) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, 0, len(m.byDate[date]))
	for _, e := range m.byDate[date] {
		out = append(out, e.Attempts)
	}
	return out, nil
}
