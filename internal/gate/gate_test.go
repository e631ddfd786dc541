package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/autonomy"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/restrictions"
)

type stubBrake struct {
	active bool
	err    error
}

func (s stubBrake) Active(context.Context, string) (bool, error) { return s.active, s.err }

type stubTiers struct{ lvl autonomy.Level }

func (s stubTiers) Tier(context.Context, string) autonomy.Level { return s.lvl }

type stubRestr struct{ res restrictions.Result }

func (s stubRestr) Evaluate(context.Context, string, restrictions.Target) restrictions.Result {
	return s.res
}

func TestGate_BrakeVetoesEverything(t *testing.T) {
	// The brake beats the most permissive configuration on every tier and
	// category.
	for _, lvl := range []autonomy.Level{autonomy.L0, autonomy.L1, autonomy.L2, autonomy.L3} {
		for _, cat := range []Category{CategoryRead, CategoryWrite} {
			g := New(stubBrake{active: true}, stubTiers{lvl: lvl}, stubRestr{})
			v, err := g.Evaluate(context.Background(), "u1", Policy{Category: cat}, restrictions.Target{})
			if v.Decision != DecisionBlocked {
				t.Fatalf("tier %s %s: brake ignored, got %s", lvl, cat, v.Decision)
			}
			if !errors.Is(err, ErrBrakeActive) {
				t.Fatalf("tier %s %s: want ErrBrakeActive, got %v", lvl, cat, err)
			}
		}
	}
}

func TestGate_BrakeReadFailureFailsClosed(t *testing.T) {
	g := New(stubBrake{err: errors.New("redis down")}, stubTiers{lvl: autonomy.L3}, stubRestr{})
	v, err := g.Evaluate(context.Background(), "u1", Policy{Category: CategoryWrite}, restrictions.Target{})
	if v.Decision != DecisionBlocked {
		t.Fatalf("unknowable brake state must block, got %s", v.Decision)
	}
	if err == nil || errors.Is(err, ErrBlocked) {
		t.Fatalf("dependency failure is a fault, not a routing outcome: %v", err)
	}
	// Check propagates the fault too, unlike ordinary blocked outcomes.
	if _, err := g.Check(context.Background(), "u1", CategoryWrite); err == nil {
		t.Fatalf("Check must surface dependency failures")
	}
}

func TestGate_RoutingTable(t *testing.T) {
	cases := []struct {
		tier autonomy.Level
		cat  Category
		want Decision
	}{
		{autonomy.L0, CategoryRead, DecisionSuggest},
		{autonomy.L0, CategoryWrite, DecisionBlocked},
		{autonomy.L1, CategoryRead, DecisionExecute},
		{autonomy.L1, CategoryWrite, DecisionBlocked},
		{autonomy.L2, CategoryRead, DecisionExecute},
		{autonomy.L2, CategoryWrite, DecisionQueueApproval},
		{autonomy.L3, CategoryRead, DecisionExecute},
		{autonomy.L3, CategoryWrite, DecisionExecute},
	}
	for _, tc := range cases {
		g := New(stubBrake{}, stubTiers{lvl: tc.tier}, stubRestr{})
		v, err := g.Check(context.Background(), "u1", tc.cat)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.tier, tc.cat, err)
		}
		if v.Decision != tc.want {
			t.Fatalf("%s %s: want %s, got %s", tc.tier, tc.cat, tc.want, v.Decision)
		}
		if v.Tier != tc.tier {
			t.Fatalf("verdict dropped the tier: %s", v.Tier)
		}
	}
}

func TestGate_RestrictionBlockOverridesTier(t *testing.T) {
	g := New(stubBrake{}, stubTiers{lvl: autonomy.L3},
		stubRestr{res: restrictions.Result{Blocked: true, Reason: "active client"}})
	v, err := g.Evaluate(context.Background(), "u1",
		Policy{Category: CategoryWrite}, restrictions.Target{Company: "Initech"})
	if v.Decision != DecisionBlocked || v.Reason != "active client" {
		t.Fatalf("restriction block lost: %+v", v)
	}
	if !errors.Is(err, ErrRestrictionBlocked) {
		t.Fatalf("want ErrRestrictionBlocked, got %v", err)
	}
}

func TestGate_RestrictionEscalatesButNeverRelaxes(t *testing.T) {
	restr := stubRestr{res: restrictions.Result{RequiresApproval: true, Reason: "sensitive sector"}}
	target := restrictions.Target{Company: "Raytech", Industry: "defense"}

	// L3 write would execute; the overlay pushes it to queued approval.
	g := New(stubBrake{}, stubTiers{lvl: autonomy.L3}, restr)
	v, err := g.CheckTarget(context.Background(), "u1", CategoryWrite, target)
	if err != nil {
		t.Fatal(err)
	}
	if v.Decision != DecisionQueueApproval || v.Reason != "sensitive sector" {
		t.Fatalf("overlay should escalate to approval: %+v", v)
	}

	// L0 write is already blocked; require_approval must not soften that.
	g = New(stubBrake{}, stubTiers{lvl: autonomy.L0}, restr)
	v, _ = g.CheckTarget(context.Background(), "u1", CategoryWrite, target)
	if v.Decision != DecisionBlocked {
		t.Fatalf("overlay relaxed a blocked decision to %s", v.Decision)
	}

	// Already at queue_approval: no change, original routing stands.
	g = New(stubBrake{}, stubTiers{lvl: autonomy.L2}, restr)
	v, _ = g.CheckTarget(context.Background(), "u1", CategoryWrite, target)
	if v.Decision != DecisionQueueApproval {
		t.Fatalf("want queue_approval, got %s", v.Decision)
	}
}

func TestGate_ZeroTargetSkipsRestrictions(t *testing.T) {
	// A blanket-blocking evaluator must not fire for target-less actions.
	g := New(stubBrake{}, stubTiers{lvl: autonomy.L3},
		stubRestr{res: restrictions.Result{Blocked: true, Reason: "should not run"}})
	v, err := g.Check(context.Background(), "u1", CategoryWrite)
	if err != nil {
		t.Fatal(err)
	}
	if v.Decision != DecisionExecute {
		t.Fatalf("target-less action hit the restriction overlay: %+v", v)
	}
}

func TestGate_TierFloor(t *testing.T) {
	g := New(stubBrake{}, stubTiers{lvl: autonomy.L1}, stubRestr{})
	pol := Policy{Category: CategoryRead, MinTier: autonomy.L2, RequireTier: true}
	v, err := g.Evaluate(context.Background(), "u1", pol, restrictions.Target{})
	if v.Decision != DecisionBlocked {
		t.Fatalf("want blocked below the floor, got %s", v.Decision)
	}
	var tv *TierViolationError
	if !errors.As(err, &tv) {
		t.Fatalf("want TierViolationError, got %v", err)
	}
	if tv.Required != autonomy.L2 || tv.Actual != autonomy.L1 {
		t.Fatalf("violation detail wrong: %+v", tv)
	}
	// A tier violation is a configuration fault, not a runtime veto.
	if errors.Is(err, ErrBlocked) {
		t.Fatalf("tier violation must not wrap ErrBlocked")
	}

	// At or above the floor the pipeline continues normally.
	g = New(stubBrake{}, stubTiers{lvl: autonomy.L2}, stubRestr{})
	v, err = g.Evaluate(context.Background(), "u1", pol, restrictions.Target{})
	if err != nil || v.Decision != DecisionExecute {
		t.Fatalf("floor met should execute read, got %+v %v", v, err)
	}
}

func TestGate_CheckSwallowsBlockedOutcomes(t *testing.T) {
	g := New(stubBrake{active: true}, stubTiers{lvl: autonomy.L3}, stubRestr{})
	v, err := g.Check(context.Background(), "u1", CategoryWrite)
	if err != nil {
		t.Fatalf("blocked is a value on the Check path, got error %v", err)
	}
	if v.Decision != DecisionBlocked {
		t.Fatalf("want blocked, got %s", v.Decision)
	}
}
