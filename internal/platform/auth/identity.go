package auth

import "context"

// ActorType distinguishes human users from system actors in audit records.
type ActorType string

const (
	ActorHuman  ActorType = "HUMAN"
	ActorSystem ActorType = "SYSTEM"
)

// Identity is the verified, request-scoped record of who is making a
// request. It is created once per request before any handler runs and is
// immutable afterwards. Authenticated is the authoritative signal; empty
// identity fields with Authenticated=false denote an anonymous request.
type Identity struct {
	UserID        string
	TenantID      string
	RoleID        string
	RoleName      string
	ActorType     ActorType
	RequestID     string
	Authenticated bool
}

type identityKey struct{}

// WithIdentity installs the identity on the request context.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// IdentityFromContext returns the request identity. When no identity was
// installed the zero value (anonymous, unauthenticated) is returned.
func IdentityFromContext(ctx context.Context) Identity {
	ident, _ := ctx.Value(identityKey{}).(Identity)
	return ident
}
