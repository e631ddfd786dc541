// Package restrictions evaluates organization policy against an action's
// target (company and/or industry). Restrictions only ever tighten the gate:
// a rule can block an action or force it through human approval, never relax
// what the tier routing decided.
package restrictions

import (
	"context"
	"log/slog"
	"strings"
)

// Target identifies what an outreach action is aimed at.
type Target struct {
	Company  string `json:"company,omitempty"`
	Industry string `json:"industry,omitempty"`
}

func (t Target) IsZero() bool { return t.Company == "" && t.Industry == "" }

// Result is the per-call policy verdict.
type Result struct {
	Blocked          bool   `json:"blocked"`
	RequiresApproval bool   `json:"requires_approval"`
	Reason           string `json:"reason,omitempty"`
}

// NoRestriction is the verdict for principals without an organization.
var NoRestriction = Result{}

type Effect string

const (
	EffectBlock           Effect = "block"
	EffectRequireApproval Effect = "require_approval"
)

// Rule matches a company name and/or industry label (case-insensitive exact
// match; empty field matches anything) and applies its effect.
type Rule struct {
	Company  string `yaml:"company"`
	Industry string `yaml:"industry"`
	Effect   Effect `yaml:"effect"`
	Reason   string `yaml:"reason"`
}

func (r Rule) matches(t Target) bool {
	if r.Company == "" && r.Industry == "" {
		return false
	}
	if r.Company != "" && !strings.EqualFold(r.Company, t.Company) {
		return false
	}
	if r.Industry != "" && !strings.EqualFold(r.Industry, t.Industry) {
		return false
	}
	return true
}

// Directory maps a principal to its organization, if any.
type Directory interface {
	OrgForPrincipal(ctx context.Context, principal string) (orgID string, found bool, err error)
}

// PolicySource returns the restriction rules for an organization.
type PolicySource interface {
	Rules(ctx context.Context, orgID string) ([]Rule, error)
}

// Evaluator computes a fresh Result per call. Lookup faults degrade to the
// most restrictive verdict; only "no record" is a clean no-restriction.
type Evaluator struct {
	dir      Directory
	policies PolicySource
}

func NewEvaluator(dir Directory, policies PolicySource) *Evaluator {
	return &Evaluator{dir: dir, policies: policies}
}

func (e *Evaluator) Evaluate(ctx context.Context, principal string, t Target) Result {
	if e == nil || e.dir == nil || e.policies == nil {
		return NoRestriction
	}
	orgID, found, err := e.dir.OrgForPrincipal(ctx, principal)
	if err != nil {
		slog.Error("org lookup failed, blocking", "principal", principal, "error", err)
		return Result{Blocked: true, Reason: "organization lookup unavailable"}
	}
	if !found {
		return NoRestriction
	}
	rules, err := e.policies.Rules(ctx, orgID)
	if err != nil {
		slog.Error("restriction rules lookup failed, blocking", "org", orgID, "error", err)
		return Result{Blocked: true, Reason: "restriction policy unavailable"}
	}
	return Apply(rules, t)
}

// Apply folds matching rules into a Result. Block wins over require_approval.
func Apply(rules []Rule, t Target) Result {
	if t.IsZero() {
		return NoRestriction
	}
	var out Result
	for _, r := range rules {
		if !r.matches(t) {
			continue
		}
		switch r.Effect {
		case EffectBlock:
			return Result{Blocked: true, Reason: r.Reason}
		case EffectRequireApproval:
			out.RequiresApproval = true
			if out.Reason == "" {
				out.Reason = r.Reason
			}
		}
	}
	return out
}
