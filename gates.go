package guardkit

// DenialReason says why a gate denied. NoCredential and
// InvalidCredential map to a 401-class outcome at the transport layer;
// everything else is 403-class.
type DenialReason string

const (
	DenyNone               DenialReason = ""
	DenyNoCredential       DenialReason = "no_credential"
	DenyInvalidCredential  DenialReason = "invalid_credential"
	DenyInsufficientRank   DenialReason = "insufficient_rank"
	DenyMissingPermissions DenialReason = "missing_permissions"
	DenyStoreUnavailable   DenialReason = "store_unavailable"
)

// Unauthenticated reports whether the reason is a 401-class failure.
func (r DenialReason) Unauthenticated() bool {
	return r == DenyNoCredential || r == DenyInvalidCredential
}

// Decision is the result of evaluating a gate. Gates never panic or
// return errors; they return a decision the host maps to its transport.
type Decision struct {
	Allowed     bool
	Reason      DenialReason
	MissingKeys []string // set when Reason is DenyMissingPermissions
}

// Err maps a denial to the error taxonomy: nil when allowed,
// ErrUnauthenticated for credential failures, ErrStoreUnavailable for a
// degraded permission check, ErrForbidden otherwise.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason.Unauthenticated():
		return NewError(ErrUnauthenticated, "")
	case d.Reason == DenyStoreUnavailable:
		return NewError(ErrStoreUnavailable, "permission set unavailable")
	case d.Reason == DenyMissingPermissions:
		return NewError(ErrForbidden, "missing permissions").WithKeys(d.MissingKeys...)
	default:
		return NewError(ErrForbidden, string(d.Reason))
	}
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenialReason) Decision {
	return Decision{Reason: reason}
}

// RequireMinimumRank allows the request iff the principal's role ranks
// at or above minimum in the hierarchy. An unauthenticated context
// always denies with its authentication reason. The gate works even
// when the context is degraded: rank decisions never touch the
// permission store.
func (a *Authorizer) RequireMinimumRank(actx *AuthContext, minimum string) Decision {
	d := a.requireMinimumRank(actx, minimum)
	a.metrics.recordDecision(d)
	return d
}

func (a *Authorizer) requireMinimumRank(actx *AuthContext, minimum string) Decision {
	if !actx.Authenticated() {
		return deny(actx.authReason())
	}
	if a.hierarchy.IsAtLeast(actx.principal.Role, NormalizeName(minimum)) {
		return allow()
	}
	return deny(DenyInsufficientRank)
}

// RequireAllPermissions allows the request iff the context holds every
// key. An empty key list always allows. The top-ranked role allows
// unconditionally: the bypass is a named rule here, not seeded catalog
// rows, so it survives an empty database. For any other role the check
// is plain set containment; order and duplicates are irrelevant.
//
// When keys are missing from a degraded context the denial reports
// DenyStoreUnavailable rather than blaming the caller's grants.
func (a *Authorizer) RequireAllPermissions(actx *AuthContext, keys ...string) Decision {
	d := a.requireAllPermissions(actx, keys...)
	a.metrics.recordDecision(d)
	return d
}

func (a *Authorizer) requireAllPermissions(actx *AuthContext, keys ...string) Decision {
	if !actx.Authenticated() {
		return deny(actx.authReason())
	}

	required := NormalizeKeys(keys)
	if len(required) == 0 {
		return allow()
	}

	top := a.hierarchy.Top()
	if top != "" && actx.principal.Role == top {
		return allow()
	}

	missing := actx.permissions.Missing(required...)
	if len(missing) == 0 {
		return allow()
	}
	if actx.degraded {
		return deny(DenyStoreUnavailable)
	}
	return Decision{Reason: DenyMissingPermissions, MissingKeys: missing}
}

// authReason returns the denial reason carried by an unauthenticated
// context, defaulting to the missing-credential reason for nil or
// malformed contexts so gates stay fail-closed.
func (a *AuthContext) authReason() DenialReason {
	if a == nil || a.reason == DenyNone {
		return DenyNoCredential
	}
	return a.reason
}
