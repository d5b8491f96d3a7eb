// Package audit defines the append-only security event record and the
// Recorder contract used by every layer that must leave an audit trail.
// The durable sink lives in internal/domain/auditevent; middleware and
// guards depend only on the interfaces here.
package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Named audit actions. Events with these actions are written at the point
// the outcome is known; the generic post-handler stage never duplicates them.
const (
	ActionLoginSuccess      = "LOGIN_SUCCESS"
	ActionLoginFailed       = "LOGIN_FAILED"
	ActionTokenInvalid      = "TOKEN_INVALID"
	ActionTokenExpired      = "TOKEN_EXPIRED"
	ActionCrossTenantAccess = "CROSS_TENANT_ACCESS_ATTEMPT"
	ActionPermissionDenied  = "PERMISSION_DENIED"
)

// Actor types recorded on events.
const (
	ActorHuman  = "HUMAN"
	ActorSystem = "SYSTEM"
)

// Event is a single immutable audit record. ActorID and TenantID are empty
// when the event is not attributable (stored as NULL).
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	ActorType string    `json:"actor_type"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Action    string    `json:"action"`
	SourceIP  string    `json:"source_ip"`
	UserAgent string    `json:"user_agent"`
}

// Recorder appends one event to the durable log. Implementations must treat
// each call as a single independent insert; no cross-request coordination.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// RecorderFunc is a function adapter for Recorder.
type RecorderFunc func(ctx context.Context, e Event) error

func (f RecorderFunc) Record(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Scope carries per-request audit state: the request correlation fields used
// to build events outside the HTTP layer, and the marker that suppresses the
// generic post-handler event once a named event has been written.
type Scope struct {
	RequestID string
	SourceIP  string
	UserAgent string

	named atomic.Bool
}

type scopeKey struct{}

// WithScope installs the scope on the request context.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the request's scope, or nil when none is installed.
func ScopeFromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// MarkNamed records that a named event was written for this request.
// Nil-safe so guards can run under contexts without a scope (tests, CLI).
func (s *Scope) MarkNamed() {
	if s != nil {
		s.named.Store(true)
	}
}

// NamedWritten reports whether a named event was written for this request.
func (s *Scope) NamedWritten() bool {
	return s != nil && s.named.Load()
}

// NewEvent builds an event stamped with a fresh id, the current time, and
// the request correlation fields from the context scope, if present.
func NewEvent(ctx context.Context, actorID, actorType, tenantID, action string) Event {
	e := Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		ActorID:   actorID,
		ActorType: actorType,
		TenantID:  tenantID,
		Action:    action,
	}
	if s := ScopeFromContext(ctx); s != nil {
		e.RequestID = s.RequestID
		e.SourceIP = s.SourceIP
		e.UserAgent = s.UserAgent
	}
	return e
}
