// Package approvals is the durable queue of write actions parked for human
// sign-off. Items reach a terminal state exactly once; expiry is judged by
// timestamp at read time, so a stale sweeper can never resurrect an item.
package approvals

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// DefaultTTL matches the outreach follow-up window: a queued email nobody
// approved within two days is stale.
const DefaultTTL = 48 * time.Hour

var (
	ErrNotFound = errors.New("approval item not found")
	// ErrConflict covers both a second decision on a decided item and a
	// decision on an expired one.
	ErrConflict = errors.New("approval item already decided or expired")
	// ErrBadAction is an unrecognized decide action.
	ErrBadAction = errors.New("unknown decide action")
)

// Item is one queued action awaiting decision. Payload is the opaque JSON
// the worker needs to resume the action after approval.
type Item struct {
	ID         string     `json:"id"`
	Principal  string     `json:"principal"`
	Category   string     `json:"category"`
	Action     string     `json:"action"`
	Payload    []byte     `json:"payload,omitempty"`
	Rationale  string     `json:"rationale,omitempty"`
	Confidence float64    `json:"confidence"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Expired reports whether the item is past its deadline at the given time,
// regardless of stored status.
func (it *Item) Expired(now time.Time) bool {
	return !it.ExpiresAt.IsZero() && now.After(it.ExpiresAt)
}

// Store is the persistence contract. Decide must be a guarded transition:
// only a pending row may move, and a lost race returns ErrConflict.
type Store interface {
	Create(ctx context.Context, it *Item) error
	Get(ctx context.Context, id string) (*Item, error)
	ListPending(ctx context.Context, principal, category string, now time.Time) ([]*Item, error)
	Decide(ctx context.Context, id string, status Status, payload []byte, decidedAt time.Time) (*Item, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}
