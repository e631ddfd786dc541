package events

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Publisher pushes events toward the delivery layer. Implementations must be
// safe for concurrent use. Errors are for the caller to log; publication is
// fire-and-forget from the gating path.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LogPublisher writes events to the process log. Default backend.
type LogPublisher struct{}

func NewLog() *LogPublisher { return &LogPublisher{} }

func (*LogPublisher) Publish(_ context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	slog.Info("event", "payload", string(b))
	return nil
}

func (*LogPublisher) Close() error { return nil }

// NoopPublisher drops everything.
type NoopPublisher struct{}

func NewNoop() *NoopPublisher { return &NoopPublisher{} }

func (*NoopPublisher) Publish(context.Context, Event) error { return nil }
func (*NoopPublisher) Close() error                         { return nil }

// MultiPublisher fans out to several backends; the first error is returned
// after all backends were attempted.
type MultiPublisher struct {
	pubs []Publisher
}

func NewMulti(pubs ...Publisher) *MultiPublisher { return &MultiPublisher{pubs: pubs} }

func (m *MultiPublisher) Publish(ctx context.Context, ev Event) error {
	var first error
	for _, p := range m.pubs {
		if err := p.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiPublisher) Close() error {
	var first error
	for _, p := range m.pubs {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
