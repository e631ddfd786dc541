package approvals

import (
	"context"
	"testing"
	"time"
)

func TestMemStore_BasicFlow(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	now := time.Now()

	a1 := &Item{ID: "a1", Principal: "u1", Category: "write", Action: "send_email",
		Status: StatusPending, CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)}
	a2 := &Item{ID: "a2", Principal: "u1", Category: "write", Action: "send_followup",
		Status: StatusPending, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := s.Create(ctx, a1); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, a2); err != nil {
		t.Fatal(err)
	}

	items, err := s.ListPending(ctx, "u1", "", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 pending, got %d", len(items))
	}
	if items[0].ID != "a2" {
		t.Fatalf("expected newest first, got %s", items[0].ID)
	}

	// Decide transition guard.
	decided, err := s.Decide(ctx, "a1", StatusApproved, nil, now)
	if err != nil {
		t.Fatal(err)
	}
	if decided.Status != StatusApproved || decided.DecidedAt == nil {
		t.Fatalf("approve failed: %+v", decided)
	}
	if _, err := s.Decide(ctx, "a1", StatusRejected, nil, now); err != ErrConflict {
		t.Fatalf("second decision should conflict, got %v", err)
	}
	if _, err := s.Decide(ctx, "missing", StatusApproved, nil, now); err != ErrNotFound {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestMemStore_ListPendingSkipsExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	now := time.Now()

	_ = s.Create(ctx, &Item{ID: "live", Principal: "u1", Category: "write",
		Status: StatusPending, CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	_ = s.Create(ctx, &Item{ID: "stale", Principal: "u1", Category: "write",
		Status: StatusPending, CreatedAt: now.Add(-3 * time.Hour), ExpiresAt: now.Add(-time.Hour)})

	items, err := s.ListPending(ctx, "u1", "write", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "live" {
		t.Fatalf("expired item leaked into pending list: %+v", items)
	}

	n, err := s.MarkExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("sweep should expire 1, got %d %v", n, err)
	}
	it, _ := s.Get(ctx, "stale")
	if it.Status != StatusExpired {
		t.Fatalf("want expired, got %s", it.Status)
	}
}
