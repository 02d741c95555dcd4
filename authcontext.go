package guardkit

import (
	"context"
	"time"
)

// DefaultResolveTimeout bounds the two suspension points of context
// construction: identity resolution and the permission-set load. A
// timeout counts as a store failure and fails closed.
const DefaultResolveTimeout = 5 * time.Second

type authState int

const (
	stateUnauthenticated authState = iota
	stateAuthenticated
)

// AuthContext is the unit of per-request authorization state. It is
// built once per request by Authorizer.Authenticate and is immutable
// afterwards; gates evaluate it but never mutate it.
type AuthContext struct {
	state       authState
	reason      DenialReason // why authentication failed, when it did
	principal   Principal
	permissions PermissionSet
	degraded    bool // permission store was unavailable at build time
}

// Authenticated reports whether a principal was resolved.
func (a *AuthContext) Authenticated() bool {
	return a != nil && a.state == stateAuthenticated
}

// Principal returns the resolved principal. Zero value when the
// context is unauthenticated.
func (a *AuthContext) Principal() Principal {
	if a == nil {
		return Principal{}
	}
	return a.principal
}

// Permissions returns a copy of the permission set materialized at
// build time.
func (a *AuthContext) Permissions() PermissionSet {
	if a == nil {
		return NewPermissionSet()
	}
	out := make(PermissionSet, len(a.permissions))
	for k := range a.permissions {
		out[k] = struct{}{}
	}
	return out
}

// Degraded reports whether the permission store was unavailable while
// the context was built. A degraded context carries an empty permission
// set: rank gates still work, permission gates deny.
func (a *AuthContext) Degraded() bool {
	return a != nil && a.degraded
}

func unauthenticated(reason DenialReason) *AuthContext {
	return &AuthContext{state: stateUnauthenticated, reason: reason}
}

// Authorizer builds per-request authorization contexts and evaluates
// the two enforcement gates against them. It holds no per-request
// state and is safe for concurrent use.
type Authorizer struct {
	resolver  IdentityResolver
	loader    PermissionLoader
	hierarchy *Hierarchy
	timeout   time.Duration
	metrics   *decisionRecorder
}

// AuthorizerOption configures the Authorizer.
type AuthorizerOption func(*Authorizer)

// WithResolveTimeout bounds identity resolution and the permission-set
// load. Zero or negative durations keep the default.
func WithResolveTimeout(d time.Duration) AuthorizerOption {
	return func(a *Authorizer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAuthorizer creates an Authorizer.
//
// Example:
//
//	authorizer := guardkit.NewAuthorizer(tokenResolver, service.Assignments(),
//	    guardkit.DefaultHierarchy(),
//	    guardkit.WithResolveTimeout(2*time.Second))
func NewAuthorizer(resolver IdentityResolver, loader PermissionLoader, hierarchy *Hierarchy, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		resolver:  resolver,
		loader:    loader,
		hierarchy: hierarchy,
		timeout:   DefaultResolveTimeout,
		metrics:   newDecisionRecorder(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Hierarchy returns the role hierarchy the authorizer evaluates
// against.
func (a *Authorizer) Hierarchy() *Hierarchy {
	return a.hierarchy
}

// Authenticate builds the request's AuthContext from a raw bearer
// credential.
//
// An empty credential and a credential the resolver rejects both end in
// an unauthenticated context; the two carry different internal reasons
// for the denial mapping (both 401-class) but are otherwise
// indistinguishable, so callers cannot learn why authentication failed.
//
// When the principal resolves but the permission load fails, the
// context degrades to an empty permission set instead of erroring the
// request: routes gated purely by rank keep working through a
// permission-store outage, permission-gated routes deny.
func (a *Authorizer) Authenticate(ctx context.Context, credential string) *AuthContext {
	start := time.Now()
	defer func() {
		a.metrics.recordBuild(time.Since(start))
	}()

	if trimmed(credential) == "" {
		return unauthenticated(DenyNoCredential)
	}

	rctx, cancel := context.WithTimeout(ctx, a.timeout)
	principal, err := a.resolver.Resolve(rctx, credential)
	cancel()
	if err != nil || principal.ID == "" {
		return unauthenticated(DenyInvalidCredential)
	}

	actx := &AuthContext{
		state:     stateAuthenticated,
		principal: principal,
	}

	lctx, cancel := context.WithTimeout(ctx, a.timeout)
	perms, err := a.loader.LoadPermissions(lctx, principal.Role)
	cancel()
	if err != nil {
		actx.permissions = NewPermissionSet()
		actx.degraded = true
		return actx
	}
	actx.permissions = perms
	return actx
}

// Metrics returns a snapshot of gate-evaluation and context-build
// statistics.
func (a *Authorizer) Metrics() DecisionMetrics {
	return a.metrics.snapshot()
}

// ResetMetrics resets all decision metrics.
func (a *Authorizer) ResetMetrics() {
	a.metrics.reset()
}
