package approvals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/events"
)

// DecideAction is what the human reviewer chose.
type DecideAction string

const (
	DecideApprove     DecideAction = "approve"
	DecideEditApprove DecideAction = "edit_approve"
	DecideReject      DecideAction = "reject"
)

// EnqueueRequest describes the action being parked for approval.
type EnqueueRequest struct {
	Principal  string
	Category   string
	Action     string
	Payload    map[string]any
	Rationale  string
	Confidence float64
	TTL        time.Duration // zero means DefaultTTL
}

// Queue layers the approval workflow over a Store: enqueue with TTL and a
// best-effort notification, read-time expiry on listing, and exactly-once
// decisions with optional payload edits.
type Queue struct {
	store  Store
	events events.Publisher
	ttl    time.Duration
	now    func() time.Time
}

func NewQueue(store Store, pub events.Publisher, ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if pub == nil {
		pub = events.NewNoop()
	}
	return &Queue{store: store, events: pub, ttl: ttl, now: time.Now}
}

// WithClock overrides the clock for tests.
func (q *Queue) WithClock(now func() time.Time) *Queue { q.now = now; return q }

// Enqueue creates a pending item. Enqueue success is durable-write success;
// the notification is fire-and-forget.
func (q *Queue) Enqueue(ctx context.Context, req EnqueueRequest) (*Item, error) {
	var payload []byte
	if req.Payload != nil {
		b, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("approvals: marshal payload: %w", err)
		}
		payload = b
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = q.ttl
	}
	now := q.now()
	it := &Item{
		ID:         uuid.NewString(),
		Principal:  req.Principal,
		Category:   req.Category,
		Action:     req.Action,
		Payload:    payload,
		Rationale:  req.Rationale,
		Confidence: req.Confidence,
		Status:     StatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := q.store.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("approvals: enqueue: %w", err)
	}
	if err := q.events.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Principal:  it.Principal,
		Type:       events.TypeApprovalRequired,
		Action:     it.Action,
		Category:   it.Category,
		ApprovalID: it.ID,
		Reason:     it.Rationale,
		At:         now,
	}); err != nil {
		slog.Warn("approval notification failed", "item", it.ID, "error", err)
	}
	return it, nil
}

// ListPending returns non-expired pending items, optionally filtered by
// category, newest first.
func (q *Queue) ListPending(ctx context.Context, principal, category string) ([]*Item, error) {
	return q.store.ListPending(ctx, principal, category, q.now())
}

// Get returns the item with read-time expiry applied to its status.
func (q *Queue) Get(ctx context.Context, id string) (*Item, error) {
	it, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.Status == StatusPending && it.Expired(q.now()) {
		it.Status = StatusExpired
	}
	return it, nil
}

// Decide applies the reviewer's decision. A second decision, or a decision
// on an expired item, returns ErrConflict. Executing the approved action is
// the consuming worker's job, not ours.
func (q *Queue) Decide(ctx context.Context, id string, action DecideAction, edit map[string]any) (*Item, error) {
	it, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.Status != StatusPending {
		return nil, ErrConflict
	}
	now := q.now()
	if it.Expired(now) {
		return nil, ErrConflict
	}

	var status Status
	var payload []byte
	switch action {
	case DecideApprove:
		status = StatusApproved
	case DecideReject:
		status = StatusRejected
	case DecideEditApprove:
		status = StatusApproved
		merged, err := mergePayload(it.Payload, edit)
		if err != nil {
			return nil, err
		}
		payload = merged
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadAction, action)
	}

	decided, err := q.store.Decide(ctx, id, status, payload, now)
	if err != nil {
		return nil, err
	}
	if err := q.events.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Principal:  decided.Principal,
		Type:       events.TypeApprovalDecided,
		Action:     decided.Action,
		Category:   decided.Category,
		Decision:   string(decided.Status),
		ApprovalID: decided.ID,
		At:         now,
	}); err != nil {
		slog.Warn("approval decision notification failed", "item", id, "error", err)
	}
	return decided, nil
}

// Sweep marks pending items past their deadline as expired. Read-time expiry
// stays authoritative; this just keeps listings tidy.
func (q *Queue) Sweep(ctx context.Context) (int64, error) {
	return q.store.MarkExpired(ctx, q.now())
}

func mergePayload(stored []byte, edit map[string]any) ([]byte, error) {
	if len(edit) == 0 {
		return stored, nil
	}
	base := map[string]any{}
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &base); err != nil {
			return nil, fmt.Errorf("approvals: stored payload not mergeable: %w", err)
		}
	}
	for k, v := range edit {
		base[k] = v
	}
	return json.Marshal(base)
}
