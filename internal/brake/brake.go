// Package brake implements the per-principal emergency stop. While a brake is
// engaged (pausing or paused) every gated action for that principal is vetoed
// before any other check runs.
package brake

import (
	"context"
	"time"
)

type State string

const (
	StateRunning State = "running"
	StatePausing State = "pausing"
	StatePaused  State = "paused"
)

// DefaultSettleWindow is how long a pausing brake waits before it may be
// reported as fully paused. In-flight actions are not killed; they just
// cannot pass another gate check, so after this window with zero in-flight
// tasks the principal is considered drained.
const DefaultSettleWindow = 30 * time.Second

// Status is the reportable brake state for one principal.
type Status struct {
	State       State     `json:"state"`
	ActivatedAt time.Time `json:"activated_at,omitempty"`
	PausedTasks int       `json:"paused_tasks_count"`
}

// Store is the durable brake state. Activate and Resume are idempotent.
// Active is the enforcement fast path: it must be a single-key read, and a
// store fault surfaces as an error so callers fail closed. Status is the
// lenient reporting path.
type Store interface {
	Activate(ctx context.Context, principal string) (Status, error)
	Resume(ctx context.Context, principal string) error
	Status(ctx context.Context, principal string) (Status, error)
	Active(ctx context.Context, principal string) (bool, error)

	// TaskStarted/TaskFinished maintain the in-flight gauge consulted by the
	// pausing->paused observation. Best effort; never gates anything.
	TaskStarted(ctx context.Context, principal string) error
	TaskFinished(ctx context.Context, principal string) error
}

// deriveState folds the stored activation into the observable state. The
// stored record only knows "engaged since T"; paused is derived once the
// settle window has elapsed with no in-flight tasks.
func deriveState(activatedAt, now time.Time, settle time.Duration, inflight int) State {
	if activatedAt.IsZero() {
		return StateRunning
	}
	if inflight == 0 && now.Sub(activatedAt) >= settle {
		return StatePaused
	}
	return StatePausing
}
