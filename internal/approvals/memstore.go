package approvals

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory approvals store (dev/testing fallback).
type MemStore struct {
	mu   sync.RWMutex
	data map[string]*Item
}

func NewMemStore() *MemStore { return &MemStore{data: map[string]*Item{}} }

func (m *MemStore) Create(_ context.Context, it *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[it.ID]; ok {
		return errors.New("duplicate id")
	}
	cp := *it
	m.data[it.ID] = &cp
	return nil
}

func (m *MemStore) Get(_ context.Context, id string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it := m.data[id]
	if it == nil {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *MemStore) ListPending(_ context.Context, principal, category string, now time.Time) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Item
	for _, it := range m.data {
		if it.Principal != principal || it.Status != StatusPending || it.Expired(now) {
			continue
		}
		if category != "" && it.Category != category {
			continue
		}
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) Decide(_ context.Context, id string, status Status, payload []byte, decidedAt time.Time) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.data[id]
	if it == nil {
		return nil, ErrNotFound
	}
	if it.Status != StatusPending {
		return nil, ErrConflict
	}
	it.Status = status
	if payload != nil {
		it.Payload = payload
	}
	at := decidedAt
	it.DecidedAt = &at
	cp := *it
	return &cp, nil
}

func (m *MemStore) MarkExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, it := range m.data {
		if it.Status == StatusPending && it.Expired(now) {
			it.Status = StatusExpired
			n++
		}
	}
	return n, nil
}
