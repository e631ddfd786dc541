package restrictions

import (
	"context"
	"errors"
	"testing"
)

type stubDir struct {
	org   string
	found bool
	err   error
}

func (s stubDir) OrgForPrincipal(context.Context, string) (string, bool, error) {
	return s.org, s.found, s.err
}

type stubPolicies struct {
	rules []Rule
	err   error
}

func (s stubPolicies) Rules(context.Context, string) ([]Rule, error) { return s.rules, s.err }

func TestEvaluator_NoOrgMeansNoRestriction(t *testing.T) {
	e := NewEvaluator(stubDir{found: false}, stubPolicies{})
	res := e.Evaluate(context.Background(), "u1", Target{Company: "Acme Corp"})
	if res != NoRestriction {
		t.Fatalf("want no restriction, got %+v", res)
	}
}

func TestEvaluator_BlockRuleWins(t *testing.T) {
	e := NewEvaluator(stubDir{org: "o1", found: true}, stubPolicies{rules: []Rule{
		{Company: "Acme Corp", Effect: EffectRequireApproval, Reason: "client"},
		{Company: "acme corp", Effect: EffectBlock, Reason: "competitor"},
	}})
	res := e.Evaluate(context.Background(), "u1", Target{Company: "ACME CORP"})
	if !res.Blocked {
		t.Fatalf("block rule should win: %+v", res)
	}
	if res.Reason != "competitor" {
		t.Fatalf("want competitor reason, got %q", res.Reason)
	}
}

func TestEvaluator_RequireApproval(t *testing.T) {
	e := NewEvaluator(stubDir{org: "o1", found: true}, stubPolicies{rules: []Rule{
		{Industry: "defense", Effect: EffectRequireApproval, Reason: "sensitive sector"},
	}})
	res := e.Evaluate(context.Background(), "u1", Target{Company: "Raytech", Industry: "Defense"})
	if res.Blocked || !res.RequiresApproval {
		t.Fatalf("want requires_approval, got %+v", res)
	}
}

func TestEvaluator_UnmatchedTargetPasses(t *testing.T) {
	e := NewEvaluator(stubDir{org: "o1", found: true}, stubPolicies{rules: []Rule{
		{Company: "Acme Corp", Effect: EffectBlock},
	}})
	res := e.Evaluate(context.Background(), "u1", Target{Company: "Globex"})
	if res.Blocked || res.RequiresApproval {
		t.Fatalf("unmatched target should pass, got %+v", res)
	}
}

func TestEvaluator_LookupFailureBlocks(t *testing.T) {
	e := NewEvaluator(stubDir{err: errors.New("down")}, stubPolicies{})
	if res := e.Evaluate(context.Background(), "u1", Target{Company: "Acme Corp"}); !res.Blocked {
		t.Fatalf("directory failure must block, got %+v", res)
	}

	e = NewEvaluator(stubDir{org: "o1", found: true}, stubPolicies{err: errors.New("down")})
	if res := e.Evaluate(context.Background(), "u1", Target{Company: "Acme Corp"}); !res.Blocked {
		t.Fatalf("policy failure must block, got %+v", res)
	}
}

func TestApply_ZeroTarget(t *testing.T) {
	res := Apply([]Rule{{Company: "Acme Corp", Effect: EffectBlock}}, Target{})
	if res != NoRestriction {
		t.Fatalf("zero target should never match, got %+v", res)
	}
}
