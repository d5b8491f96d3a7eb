package auth

// Capability strings are namespaced as resource:action and matched by exact
// string equality. No hierarchy or wildcard semantics.
const (
	PermUserCreate = "user:create"
	PermUserView   = "user:view"
	PermUserUpdate = "user:update"

	PermAuditView = "audit:view"

	PermTenantCreate = "tenant:create"
	PermTenantView   = "tenant:view"
	PermTenantUpdate = "tenant:update"

	PermInteractionStart = "interaction:start"
	PermInteractionClose = "interaction:close"
	PermInteractionView  = "interaction:view"
)

// Registry is the static role→permission table. It is built once at process
// start and never mutated; concurrent reads need no synchronization. Unknown
// role names resolve to an empty permission set: fail closed, never open.
type Registry struct {
	roles map[string]map[string]struct{}
}

// DefaultRegistry returns the built-in role table. Adding a role is a
// deployment-time change, not a runtime operation.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string][]string{
		"SYSTEM_ADMIN": {
			PermTenantCreate,
			PermTenantView,
			PermTenantUpdate,
			PermAuditView,
		},
		"CLINIC_ADMIN": {
			PermUserCreate,
			PermUserView,
			PermUserUpdate,
			PermAuditView,
		},
		"DOCTOR": {
			PermUserView,
			PermInteractionStart,
			PermInteractionClose,
			PermInteractionView,
		},
		"NURSE": {
			PermUserView,
			PermInteractionView,
		},
		"RECEPTIONIST": {
			PermUserView,
		},
		"COMPLIANCE_OFFICER": {
			PermAuditView,
		},
	})
}

// NewRegistry builds an immutable registry from role→permissions data.
func NewRegistry(roles map[string][]string) *Registry {
	r := &Registry{roles: make(map[string]map[string]struct{}, len(roles))}
	for name, perms := range roles {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		r.roles[name] = set
	}
	return r
}

// Has reports whether the role grants the capability.
func (r *Registry) Has(roleName, capability string) bool {
	set, ok := r.roles[roleName]
	if !ok {
		return false
	}
	_, ok = set[capability]
	return ok
}

// Known reports whether the role name exists in the table.
func (r *Registry) Known(roleName string) bool {
	_, ok := r.roles[roleName]
	return ok
}

// Permissions returns a copy of the role's permission set.
func (r *Registry) Permissions(roleName string) []string {
	set, ok := r.roles[roleName]
	if !ok {
		return nil
	}
	perms := make([]string, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	return perms
}
