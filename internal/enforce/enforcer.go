// Package enforce wraps units of agent work with the gate. The wrapped
// operation only contains happy-path logic; suggestion tagging, approval
// queuing, rejection, and the single activity record per invocation all
// happen here.
package enforce

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/approvals"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/audit"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/autonomy"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/events"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/gate"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/restrictions"
)

// Op is the wrapped unit of work.
type Op func(ctx context.Context) (any, error)

// Action declares what is being attempted: the static gate policy plus
// everything needed to park the action for approval if that is the verdict.
type Action struct {
	Name       string
	Policy     gate.Policy
	Target     restrictions.Target
	Payload    map[string]any // opaque resume data for the approval queue
	Rationale  string
	Confidence float64
}

// Outcome is the caller-visible result. Suggestion means the result executed
// but must be presented as advisory; ApprovalID means the action is parked.
type Outcome struct {
	Decision   gate.Decision
	Tier       autonomy.Level
	Result     any
	Suggestion bool
	ApprovalID string
	Reason     string
}

// TaskTracker is the brake store's in-flight gauge. Best effort only.
type TaskTracker interface {
	TaskStarted(ctx context.Context, principal string) error
	TaskFinished(ctx context.Context, principal string) error
}

type Enforcer struct {
	gate   *gate.Gate
	queue  *approvals.Queue
	audit  audit.Recorder
	events events.Publisher
	tasks  TaskTracker
	tracer trace.Tracer
}

func New(g *gate.Gate, queue *approvals.Queue, rec audit.Recorder, pub events.Publisher) *Enforcer {
	if rec == nil {
		rec = audit.NewSlog()
	}
	if pub == nil {
		pub = events.NewNoop()
	}
	return &Enforcer{
		gate:   g,
		queue:  queue,
		audit:  rec,
		events: pub,
		tracer: otel.Tracer("gating/enforce"),
	}
}

// WithTaskTracker registers in-flight bookkeeping with the brake store.
func (e *Enforcer) WithTaskTracker(t TaskTracker) *Enforcer { e.tasks = t; return e }

// Do gates and runs one action. Whatever branch is taken — execute, suggest,
// queue, block, or fault — exactly one activity record is emitted.
func (e *Enforcer) Do(ctx context.Context, principal string, act Action, op Op) (*Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "gate."+act.Name)
	defer span.End()

	out := &Outcome{Decision: gate.DecisionBlocked}
	var doErr error
	defer func() { e.emit(ctx, principal, act, out, doErr) }()

	v, err := e.gate.Evaluate(ctx, principal, act.Policy, act.Target)
	out.Decision = v.Decision
	out.Tier = v.Tier
	out.Reason = v.Reason
	span.SetAttributes(
		attribute.String("gate.decision", string(v.Decision)),
		attribute.String("gate.tier", v.Tier.String()),
		attribute.String("gate.category", string(act.Policy.Category)),
	)
	if err != nil {
		doErr = err
		span.SetStatus(codes.Error, v.Reason)
		return nil, err
	}

	switch v.Decision {
	case gate.DecisionExecute, gate.DecisionSuggest:
		res, err := e.run(ctx, principal, op)
		if err != nil {
			doErr = err
			span.SetStatus(codes.Error, "operation failed")
			return nil, err
		}
		out.Result = res
		out.Suggestion = v.Decision == gate.DecisionSuggest
		return out, nil

	case gate.DecisionQueueApproval:
		it, err := e.queue.Enqueue(ctx, approvals.EnqueueRequest{
			Principal:  principal,
			Category:   string(act.Policy.Category),
			Action:     act.Name,
			Payload:    act.Payload,
			Rationale:  act.Rationale,
			Confidence: act.Confidence,
		})
		if err != nil {
			doErr = err
			span.SetStatus(codes.Error, "approval enqueue failed")
			return nil, err
		}
		out.ApprovalID = it.ID
		span.SetAttributes(attribute.String("gate.approval_id", it.ID))
		return out, nil
	}

	// Blocked verdicts arrive with an error from Evaluate; reaching here
	// means the table produced something unroutable.
	doErr = gate.ErrBlocked
	return nil, gate.ErrBlocked
}

// run executes the operation with in-flight bookkeeping so a pausing brake
// can observe when this principal's work has drained.
func (e *Enforcer) run(ctx context.Context, principal string, op Op) (any, error) {
	if e.tasks != nil {
		if err := e.tasks.TaskStarted(ctx, principal); err != nil {
			slog.Warn("task tracking start failed", "principal", principal, "error", err)
		} else {
			defer func() {
				if err := e.tasks.TaskFinished(context.WithoutCancel(ctx), principal); err != nil {
					slog.Warn("task tracking finish failed", "principal", principal, "error", err)
				}
			}()
		}
	}
	return op(ctx)
}

// emit writes the one activity record and the one notification for this
// invocation. Runs on every branch, including rejections; failures here are
// logged, never surfaced into the gating result.
func (e *Enforcer) emit(ctx context.Context, principal string, act Action, out *Outcome, doErr error) {
	ctx = context.WithoutCancel(ctx)
	now := time.Now()

	sev := audit.SeverityInfo
	details := map[string]any{
		"action":   act.Name,
		"category": string(act.Policy.Category),
		"decision": string(out.Decision),
	}
	if out.Reason != "" {
		details["reason"] = out.Reason
	}
	if out.ApprovalID != "" {
		details["approval_id"] = out.ApprovalID
	}
	if doErr != nil {
		sev = audit.SeverityWarning
		details["error"] = doErr.Error()
	}
	if err := e.audit.Record(ctx, audit.Entry{
		Principal: principal,
		Type:      events.TypeActionGated,
		Severity:  sev,
		Details:   details,
		At:        now,
	}); err != nil {
		slog.Warn("activity record failed", "principal", principal, "action", act.Name, "error", err)
	}

	if err := e.events.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Principal:  principal,
		Type:       events.TypeActionGated,
		Action:     act.Name,
		Category:   string(act.Policy.Category),
		Decision:   string(out.Decision),
		ApprovalID: out.ApprovalID,
		Reason:     out.Reason,
		At:         now,
	}); err != nil {
		slog.Warn("gating event publish failed", "principal", principal, "action", act.Name, "error", err)
	}
}
