package proximity

import (
	"context"
	"sync"
	"time"
)

// CooldownGate decides whether a user may receive an alert now. A successful
// Acquire opens a suppression window of the given length for that user.
type CooldownGate interface {
	Acquire(ctx context.Context, userID string, window time.Duration) (bool, error)
}

// MemoryGate is the single-instance CooldownGate.
type MemoryGate struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewMemoryGate(now func() time.Time) *MemoryGate {
	if now == nil {
		now = time.Now
	}
	return &MemoryGate{until: make(map[string]time.Time), now: now}
}

func (g *MemoryGate) Acquire(_ context.Context, userID string, window time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if until, ok := g.until[userID]; ok && now.Before(until) {
		return false, nil
	}
	g.until[userID] = now.Add(window)

	if len(g.until) > 4096 {
		for id, until := range g.until {
			if !now.Before(until) {
				delete(g.until, id)
			}
		}
	}
	return true, nil
}
