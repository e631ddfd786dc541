// Package gate is the autonomy decision engine. For every agent action it
// renders exactly one of four decisions, in strict order: brake veto first,
// then the optional static tier floor, then per-tier routing, then the
// restriction overlay which may only tighten the result.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/autonomy"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/restrictions"
)

type Category string

const (
	CategoryRead  Category = "read"
	CategoryWrite Category = "write"
)

type Decision string

const (
	DecisionExecute       Decision = "execute"
	DecisionSuggest       Decision = "suggest"
	DecisionQueueApproval Decision = "queue_approval"
	DecisionBlocked       Decision = "blocked"
)

// strictness orders decisions so the restriction overlay can only escalate.
func strictness(d Decision) int {
	switch d {
	case DecisionExecute:
		return 0
	case DecisionSuggest:
		return 1
	case DecisionQueueApproval:
		return 2
	case DecisionBlocked:
		return 3
	}
	return 3
}

func stricter(a, b Decision) Decision {
	if strictness(b) > strictness(a) {
		return b
	}
	return a
}

// Policy is the static gate configuration an operation is declared with.
type Policy struct {
	Category Category
	// MinTier is enforced only when RequireTier is set; the tierless Check
	// entry point never sets it.
	MinTier     autonomy.Level
	RequireTier bool
}

// Verdict is the evaluated outcome plus the inputs that produced it.
type Verdict struct {
	Decision    Decision
	Reason      string
	Tier        autonomy.Level
	Restriction restrictions.Result
}

// BrakeChecker is the strict enforcement read of the brake. An error means
// the state is unknowable and the gate fails closed.
type BrakeChecker interface {
	Active(ctx context.Context, principal string) (bool, error)
}

// TierResolver resolves the principal's autonomy level; never errors,
// degrades to L0.
type TierResolver interface {
	Tier(ctx context.Context, principal string) autonomy.Level
}

// RestrictionEvaluator applies organization policy to the action's target.
type RestrictionEvaluator interface {
	Evaluate(ctx context.Context, principal string, t restrictions.Target) restrictions.Result
}

type Gate struct {
	brake        BrakeChecker
	tiers        TierResolver
	restrictions RestrictionEvaluator
}

func New(brake BrakeChecker, tiers TierResolver, restr RestrictionEvaluator) *Gate {
	return &Gate{brake: brake, tiers: tiers, restrictions: restr}
}

// Evaluate runs the full ordered pipeline. Blocked-class verdicts come back
// with a non-nil error wrapping ErrBlocked (or a *TierViolationError) so the
// enforcement wrapper can surface them distinctly; the Verdict always
// carries the decision regardless.
func (g *Gate) Evaluate(ctx context.Context, principal string, pol Policy, target restrictions.Target) (Verdict, error) {
	// Step 1: brake. Always first, consulted before anything else, and a
	// read failure is a veto, not a pass.
	active, err := g.brake.Active(ctx, principal)
	if err != nil {
		return Verdict{Decision: DecisionBlocked, Reason: "brake state unavailable"},
			fmt.Errorf("gate: brake check: %w", err)
	}
	if active {
		return Verdict{Decision: DecisionBlocked, Reason: "emergency brake engaged"}, ErrBrakeActive
	}

	// Step 2: static tier floor, only for operations that declare one.
	tier := g.tiers.Tier(ctx, principal)
	if pol.RequireTier && !tier.AtLeast(pol.MinTier) {
		return Verdict{Decision: DecisionBlocked, Tier: tier, Reason: "insufficient autonomy tier"},
			&TierViolationError{Required: pol.MinTier, Actual: tier}
	}

	// Step 3: per-tier routing.
	decision := route(tier, pol.Category)
	reason := ""
	if decision == DecisionBlocked {
		reason = fmt.Sprintf("tier %s does not permit %s actions", tier, pol.Category)
	}

	// Step 4: restriction overlay. Escalates only.
	var res restrictions.Result
	if g.restrictions != nil && !target.IsZero() {
		res = g.restrictions.Evaluate(ctx, principal, target)
	}
	if res.Blocked {
		v := Verdict{Decision: DecisionBlocked, Tier: tier, Restriction: res, Reason: res.Reason}
		if v.Reason == "" {
			v.Reason = "blocked by organization restriction"
		}
		return v, fmt.Errorf("%w: %s", ErrRestrictionBlocked, v.Reason)
	}
	if res.RequiresApproval {
		escalated := stricter(decision, DecisionQueueApproval)
		if escalated != decision {
			decision = escalated
			reason = res.Reason
			if reason == "" {
				reason = "organization restriction requires approval"
			}
		}
	}

	v := Verdict{Decision: decision, Tier: tier, Restriction: res, Reason: reason}
	if decision == DecisionBlocked {
		return v, fmt.Errorf("%w: %s", ErrBlocked, reason)
	}
	return v, nil
}

// Check is the programmatic entry point for call sites that branch on the
// decision themselves. Routing outcomes are values, not errors: only a
// dependency failure (unknowable brake state) returns an error, and even
// then the verdict says blocked.
func (g *Gate) Check(ctx context.Context, principal string, cat Category) (Verdict, error) {
	return g.CheckTarget(ctx, principal, cat, restrictions.Target{})
}

// CheckTarget is Check with a restriction target.
func (g *Gate) CheckTarget(ctx context.Context, principal string, cat Category, target restrictions.Target) (Verdict, error) {
	v, err := g.Evaluate(ctx, principal, Policy{Category: cat}, target)
	if err != nil && errors.Is(err, ErrBlocked) {
		return v, nil
	}
	return v, err
}

// route is the tier/category table. Reads always run, but at L0 the output
// is advisory only; writes climb from blocked through queued approval to
// direct execution.
func route(tier autonomy.Level, cat Category) Decision {
	if cat == CategoryRead {
		if tier == autonomy.L0 {
			return DecisionSuggest
		}
		return DecisionExecute
	}
	switch tier {
	case autonomy.L2:
		return DecisionQueueApproval
	case autonomy.L3:
		return DecisionExecute
	default: // L0, L1
		return DecisionBlocked
	}
}
