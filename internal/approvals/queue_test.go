package approvals

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/events"
)

type captivePublisher struct {
	published []events.Event
	err       error
}

func (p *captivePublisher) Publish(_ context.Context, ev events.Event) error {
	p.published = append(p.published, ev)
	return p.err
}

func (p *captivePublisher) Close() error { return nil }

func TestQueue_EnqueueSetsTTLAndNotifies(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pub := &captivePublisher{}
	q := NewQueue(NewMemStore(), pub, 0).WithClock(func() time.Time { return now })

	it, err := q.Enqueue(ctx, EnqueueRequest{
		Principal: "u1",
		Category:  "write",
		Action:    "send_email",
		Payload:   map[string]any{"subject": "hello", "to": "ceo@acme.test"},
		Rationale: "new lead",
	})
	if err != nil {
		t.Fatal(err)
	}
	if it.Status != StatusPending {
		t.Fatalf("want pending, got %s", it.Status)
	}
	if got := it.ExpiresAt.Sub(it.CreatedAt); got != DefaultTTL {
		t.Fatalf("want 48h deadline, got %s", got)
	}
	if len(pub.published) != 1 || pub.published[0].Type != events.TypeApprovalRequired {
		t.Fatalf("want one approval_required event, got %+v", pub.published)
	}
	if pub.published[0].ApprovalID != it.ID {
		t.Fatalf("event not linked to item")
	}
}

func TestQueue_EnqueueSurvivesFailingPublisher(t *testing.T) {
	ctx := context.Background()
	pub := &captivePublisher{err: errors.New("broker down")}
	q := NewQueue(NewMemStore(), pub, time.Hour)

	it, err := q.Enqueue(ctx, EnqueueRequest{Principal: "u1", Category: "write", Action: "send_email"})
	if err != nil {
		t.Fatalf("durable write succeeded, enqueue must too: %v", err)
	}
	got, err := q.Get(ctx, it.ID)
	if err != nil || got.Status != StatusPending {
		t.Fatalf("item missing after failed notification: %v %v", got, err)
	}
}

func TestQueue_DecideIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	pub := &captivePublisher{}
	q := NewQueue(NewMemStore(), pub, time.Hour)

	it, _ := q.Enqueue(ctx, EnqueueRequest{Principal: "u1", Category: "write", Action: "send_email"})

	decided, err := q.Decide(ctx, it.ID, DecideApprove, nil)
	if err != nil {
		t.Fatal(err)
	}
	if decided.Status != StatusApproved {
		t.Fatalf("want approved, got %s", decided.Status)
	}

	if _, err := q.Decide(ctx, it.ID, DecideReject, nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("second decision must conflict, got %v", err)
	}
	// The losing decision leaves the first outcome intact.
	got, _ := q.Get(ctx, it.ID)
	if got.Status != StatusApproved {
		t.Fatalf("conflict overwrote the decision: %s", got.Status)
	}
}

func TestQueue_EditApproveMergesPayload(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(NewMemStore(), nil, time.Hour)

	it, _ := q.Enqueue(ctx, EnqueueRequest{
		Principal: "u1", Category: "write", Action: "send_email",
		Payload: map[string]any{"subject": "hi", "to": "ceo@acme.test"},
	})

	decided, err := q.Decide(ctx, it.ID, DecideEditApprove, map[string]any{"subject": "Hello from us"})
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if err := json.Unmarshal(decided.Payload, &body); err != nil {
		t.Fatal(err)
	}
	if body["subject"] != "Hello from us" {
		t.Fatalf("edit not applied: %v", body)
	}
	if body["to"] != "ceo@acme.test" {
		t.Fatalf("untouched field lost: %v", body)
	}
}

func TestQueue_DecideExpiredConflicts(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	q := NewQueue(NewMemStore(), nil, time.Hour).WithClock(func() time.Time { return now })

	it, _ := q.Enqueue(ctx, EnqueueRequest{Principal: "u1", Category: "write", Action: "send_email"})

	now = now.Add(2 * time.Hour)
	if _, err := q.Decide(ctx, it.ID, DecideApprove, nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("decision on expired item must conflict, got %v", err)
	}
	// Read-time expiry shows up without any sweep.
	got, _ := q.Get(ctx, it.ID)
	if got.Status != StatusExpired {
		t.Fatalf("want expired at read time, got %s", got.Status)
	}
}

func TestQueue_DecideUnknownAction(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(NewMemStore(), nil, time.Hour)
	it, _ := q.Enqueue(ctx, EnqueueRequest{Principal: "u1", Category: "write", Action: "send_email"})
	if _, err := q.Decide(ctx, it.ID, "maybe", nil); !errors.Is(err, ErrBadAction) {
		t.Fatalf("want ErrBadAction, got %v", err)
	}
}

func TestQueue_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	q := NewQueue(NewMemStore(), nil, time.Hour).WithClock(func() time.Time { return now })

	_, _ = q.Enqueue(ctx, EnqueueRequest{Principal: "u1", Category: "write", Action: "a"})
	_, _ = q.Enqueue(ctx, EnqueueRequest{Principal: "u1", Category: "write", Action: "b"})

	now = now.Add(90 * time.Minute)
	n, err := q.Sweep(ctx)
	if err != nil || n != 2 {
		t.Fatalf("sweep should expire 2, got %d %v", n, err)
	}
	items, _ := q.ListPending(ctx, "u1", "")
	if len(items) != 0 {
		t.Fatalf("swept items still pending: %+v", items)
	}
}
