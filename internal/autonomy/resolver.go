package autonomy

import (
	"context"
	"log/slog"
)

// PreferenceStore looks up a principal's stored autonomy preference.
// found=false means no preference exists; err is reserved for store faults.
type PreferenceStore interface {
	AutonomyPreference(ctx context.Context, principal string) (level Level, found bool, err error)
}

// Resolver resolves the effective tier for a principal. It never returns an
// error: an absent record and a failed lookup both resolve to L0, so a store
// outage can only make the gate stricter, never looser.
type Resolver struct {
	prefs PreferenceStore
}

func NewResolver(prefs PreferenceStore) *Resolver { return &Resolver{prefs: prefs} }

// Tier returns the principal's autonomy level, defaulting to L0.
func (r *Resolver) Tier(ctx context.Context, principal string) Level {
	if r == nil || r.prefs == nil {
		return L0
	}
	lvl, found, err := r.prefs.AutonomyPreference(ctx, principal)
	if err != nil {
		slog.Warn("autonomy preference lookup failed, defaulting to L0", "principal", principal, "error", err)
		return L0
	}
	if !found {
		return L0
	}
	return lvl
}
