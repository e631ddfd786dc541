package autonomy

import (
	"context"
	"errors"
	"testing"
)

type stubPrefs struct {
	lvl   Level
	found bool
	err   error
}

func (s stubPrefs) AutonomyPreference(context.Context, string) (Level, bool, error) {
	return s.lvl, s.found, s.err
}

func TestResolver_DefaultsToL0(t *testing.T) {
	r := NewResolver(stubPrefs{found: false})
	if got := r.Tier(context.Background(), "u1"); got != L0 {
		t.Fatalf("no preference should resolve to L0, got %s", got)
	}
}

func TestResolver_LookupFailureDegradesToL0(t *testing.T) {
	r := NewResolver(stubPrefs{lvl: L3, found: true, err: errors.New("store down")})
	if got := r.Tier(context.Background(), "u1"); got != L0 {
		t.Fatalf("lookup failure must degrade to L0, got %s", got)
	}
}

func TestResolver_ReturnsStoredLevel(t *testing.T) {
	r := NewResolver(stubPrefs{lvl: L2, found: true})
	if got := r.Tier(context.Background(), "u1"); got != L2 {
		t.Fatalf("want L2, got %s", got)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"L0": L0, "l1": L1, "2": L2, " L3 ": L3} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseLevel("L9"); err == nil {
		t.Fatalf("expected error for L9")
	}
}

func TestLevelOrdering(t *testing.T) {
	if !L3.AtLeast(L2) || L1.AtLeast(L2) {
		t.Fatalf("tier ordering broken")
	}
	if L2.Rank() != 2 {
		t.Fatalf("rank mismatch: %d", L2.Rank())
	}
}
