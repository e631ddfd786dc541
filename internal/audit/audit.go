// Package audit is the append-only activity log. The enforcer records one
// entry per gated invocation, whatever branch was taken.
package audit

import (
	"context"
	"log/slog"
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Entry struct {
	Principal string         `json:"principal"`
	Type      string         `json:"type"`
	Severity  Severity       `json:"severity"`
	Details   map[string]any `json:"details,omitempty"`
	At        time.Time      `json:"at"`
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// SlogRecorder logs entries through the default logger. Used when no durable
// sink is configured, and in tests.
type SlogRecorder struct{}

func NewSlog() *SlogRecorder { return &SlogRecorder{} }

func (*SlogRecorder) Record(_ context.Context, e Entry) error {
	slog.Info("activity",
		"principal", e.Principal,
		"type", e.Type,
		"severity", string(e.Severity),
		"details", e.Details,
	)
	return nil
}

// MultiRecorder writes to every sink; the first error wins but all sinks are
// attempted.
type MultiRecorder struct {
	sinks []Recorder
}

func NewMulti(sinks ...Recorder) *MultiRecorder { return &MultiRecorder{sinks: sinks} }

func (m *MultiRecorder) Record(ctx context.Context, e Entry) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Record(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
