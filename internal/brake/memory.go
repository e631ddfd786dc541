package brake

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory brake store (dev/testing fallback).
type MemStore struct {
	mu       sync.RWMutex
	engaged  map[string]time.Time // principal -> activation time
	inflight map[string]int
	settle   time.Duration
	now      func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		engaged:  map[string]time.Time{},
		inflight: map[string]int{},
		settle:   DefaultSettleWindow,
		now:      time.Now,
	}
}

// WithClock overrides the clock; tests use this to cross the settle window.
func (m *MemStore) WithClock(now func() time.Time) *MemStore { m.now = now; return m }

// WithSettleWindow overrides the pausing->paused observation window.
func (m *MemStore) WithSettleWindow(d time.Duration) *MemStore { m.settle = d; return m }

func (m *MemStore) Activate(_ context.Context, principal string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.engaged[principal]
	if !ok {
		at = m.now()
		m.engaged[principal] = at
	}
	return m.statusLocked(principal, at), nil
}

func (m *MemStore) Resume(_ context.Context, principal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.engaged, principal)
	return nil
}

func (m *MemStore) Status(_ context.Context, principal string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.engaged[principal]
	if !ok {
		return Status{State: StateRunning}, nil
	}
	return m.statusLocked(principal, at), nil
}

func (m *MemStore) Active(_ context.Context, principal string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.engaged[principal]
	return ok, nil
}

func (m *MemStore) TaskStarted(_ context.Context, principal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight[principal]++
	return nil
}

func (m *MemStore) TaskFinished(_ context.Context, principal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[principal] > 0 {
		m.inflight[principal]--
	}
	return nil
}

func (m *MemStore) statusLocked(principal string, at time.Time) Status {
	n := m.inflight[principal]
	return Status{
		State:       deriveState(at, m.now(), m.settle, n),
		ActivatedAt: at,
		PausedTasks: n,
	}
}
