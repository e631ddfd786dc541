// Package httpserver is the administrative control surface: brake lifecycle,
// approval review, and activity lookups. It is deliberately thin — all
// gating semantics live in the internal packages it fronts.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/approvals"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/audit"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/brake"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/events"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/gate"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/restrictions"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/security/rbac"
)

type Server struct {
	brakes brake.Store
	queue  *approvals.Queue
	gates  *gate.Gate
	events events.Publisher
	audit  audit.Recorder
	authz  rbac.Authorizer
	tokens map[string]string // bearer token -> subject
	mux    *http.ServeMux
}

func New(brakes brake.Store, queue *approvals.Queue, g *gate.Gate, pub events.Publisher, rec audit.Recorder, authz rbac.Authorizer, tokens map[string]string) *Server {
	if pub == nil {
		pub = events.NewNoop()
	}
	if rec == nil {
		rec = audit.NewSlog()
	}
	if authz == nil {
		authz = rbac.AllowAll{}
	}
	s := &Server{
		brakes: brakes,
		queue:  queue,
		gates:  g,
		events: pub,
		audit:  rec,
		authz:  authz,
		tokens: tokens,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.mux.HandleFunc("POST /v1/brake/{principal}/activate", s.requireAuth("brake", "write", s.handleBrakeActivate))
	s.mux.HandleFunc("POST /v1/brake/{principal}/resume", s.requireAuth("brake", "write", s.handleBrakeResume))
	s.mux.HandleFunc("GET /v1/brake/{principal}", s.requireAuth("brake", "read", s.handleBrakeStatus))
	s.mux.HandleFunc("GET /v1/approvals/{principal}", s.requireAuth("approvals", "read", s.handleApprovalsList))
	s.mux.HandleFunc("POST /v1/approvals/items/{id}/decide", s.requireAuth("approvals", "write", s.handleApprovalDecide))
	s.mux.HandleFunc("GET /v1/gate/{principal}/check", s.requireAuth("gate", "read", s.handleGateCheck))
}

func (s *Server) Handler() http.Handler { return s.mux }

// requireAuth resolves the bearer token to a subject and checks the casbin
// policy before dispatching.
func (s *Server) requireAuth(resource, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, ok := s.subject(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
			return
		}
		if !s.authz.Can(subject, resource, action) {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "forbidden"})
			return
		}
		next(w, r)
	}
}

func (s *Server) subject(r *http.Request) (string, bool) {
	if len(s.tokens) == 0 {
		return "anonymous", true
	}
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return "", false
	}
	subject, ok := s.tokens[strings.TrimSpace(token)]
	return subject, ok
}

func (s *Server) handleBrakeActivate(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	st, err := s.brakes.Activate(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	s.notify(r.Context(), principal, events.TypeBrakeActivated)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleBrakeResume(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	if err := s.brakes.Resume(r.Context(), principal); err != nil {
		writeError(w, err)
		return
	}
	s.notify(r.Context(), principal, events.TypeBrakeResumed)
	writeJSON(w, http.StatusOK, brake.Status{State: brake.StateRunning})
}

func (s *Server) handleBrakeStatus(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	st, err := s.brakes.Status(r.Context(), principal)
	if err != nil {
		// Reporting degrades instead of failing: state is unknown, the
		// enforcement path has its own strict read.
		slog.Warn("brake status read failed", "principal", principal, "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"state": "unknown"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleApprovalsList(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	category := r.URL.Query().Get("category")
	items, err := s.queue.ListPending(r.Context(), principal, category)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []*approvals.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

type decideRequest struct {
	Action string         `json:"action"` // approve|edit_approve|reject
	Edit   map[string]any `json:"edit,omitempty"`
}

func (s *Server) handleApprovalDecide(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request"})
		return
	}
	it, err := s.queue.Decide(r.Context(), id, approvals.DecideAction(req.Action), req.Edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// handleGateCheck is a dry-run of the programmatic check; nothing executes
// and nothing is queued.
func (s *Server) handleGateCheck(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	cat := gate.Category(r.URL.Query().Get("category"))
	if cat == "" {
		cat = gate.CategoryRead
	}
	target := restrictions.Target{
		Company:  r.URL.Query().Get("company"),
		Industry: r.URL.Query().Get("industry"),
	}
	v, err := s.gates.CheckTarget(r.Context(), principal, cat, target)
	if err != nil {
		// Unknowable brake state: report the fail-closed verdict.
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"decision": string(v.Decision),
			"reason":   v.Reason,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"decision":    string(v.Decision),
		"tier":        v.Tier.String(),
		"reason":      v.Reason,
		"restriction": v.Restriction,
	})
}

// notify publishes the lifecycle event and appends the matching audit entry.
func (s *Server) notify(ctx context.Context, principal, eventType string) {
	now := time.Now()
	if err := s.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Principal: principal,
		Type:      eventType,
		At:        now,
	}); err != nil {
		slog.Warn("brake notification failed", "principal", principal, "type", eventType, "error", err)
	}
	if err := s.audit.Record(ctx, audit.Entry{
		Principal: principal,
		Type:      eventType,
		Severity:  audit.SeverityInfo,
		At:        now,
	}); err != nil {
		slog.Warn("brake audit record failed", "principal", principal, "type", eventType, "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, approvals.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	case errors.Is(err, approvals.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"message": "already decided or expired"})
	case errors.Is(err, approvals.ErrBadAction):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request"})
	default:
		slog.Error("admin request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
