package restrictions

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const samplePolicy = `
orgs:
  acme:
    rules:
      - company: "Initech"
        effect: block
        reason: "active client"
      - industry: "defense"
        effect: require_approval
`

func TestFileSource_LoadAndServe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(samplePolicy), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}

	rules, err := src.Rules(context.Background(), "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 {
		t.Fatalf("want 2 rules, got %d", len(rules))
	}
	res := Apply(rules, Target{Company: "initech"})
	if !res.Blocked || res.Reason != "active client" {
		t.Fatalf("want block with reason, got %+v", res)
	}

	rules, err = src.Rules(context.Background(), "unknown-org")
	if err != nil || len(rules) != 0 {
		t.Fatalf("unknown org should have no rules, got %v %v", rules, err)
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing policy file")
	}
}
