package guardkit

import (
	"context"
	"sync"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency
// injection.
type Database interface {
	dbkit.IDB
}

// IdentityResolver turns a raw bearer credential into a Principal. It
// is an external collaborator: token verification and user lookup live
// outside guardkit. Any error (invalid credential, expired token,
// principal not found) causes an unauthenticated context; guardkit
// never distinguishes the sub-reasons.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (Principal, error)
}

// IdentityResolverFunc adapts a function to the IdentityResolver
// interface.
type IdentityResolverFunc func(ctx context.Context, credential string) (Principal, error)

// Resolve implements IdentityResolver.
func (f IdentityResolverFunc) Resolve(ctx context.Context, credential string) (Principal, error) {
	return f(ctx, credential)
}

// PermissionLoader materializes the current permission set for a role.
// AssignmentStore implements it; tests substitute fakes.
type PermissionLoader interface {
	LoadPermissions(ctx context.Context, roleName string) (PermissionSet, error)
}

// PermissionLoaderFunc adapts a function to the PermissionLoader
// interface.
type PermissionLoaderFunc func(ctx context.Context, roleName string) (PermissionSet, error)

// LoadPermissions implements PermissionLoader.
func (f PermissionLoaderFunc) LoadPermissions(ctx context.Context, roleName string) (PermissionSet, error) {
	return f(ctx, roleName)
}

// PrincipalDirectory is the external user store collaborator. The
// service consults it before deleting a role (no principal may be
// orphaned onto an undefined role), before demoting the last holder of
// the top role, and to apply a role reassignment.
type PrincipalDirectory interface {
	// CountByRole returns how many principals currently hold role.
	CountByRole(ctx context.Context, role string) (int, error)

	// SetRole changes the role a principal holds.
	SetRole(ctx context.Context, principalID, role string) error
}

// MemoryDirectory is an in-memory PrincipalDirectory for examples and
// tests. Production deployments implement PrincipalDirectory over
// their real user store.
type MemoryDirectory struct {
	mu    sync.RWMutex
	roles map[string]string // principalID -> role
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{roles: make(map[string]string)}
}

// CountByRole implements PrincipalDirectory.
func (d *MemoryDirectory) CountByRole(_ context.Context, role string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, r := range d.roles {
		if r == role {
			n++
		}
	}
	return n, nil
}

// SetRole implements PrincipalDirectory.
func (d *MemoryDirectory) SetRole(_ context.Context, principalID, role string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.roles[principalID] = role
	return nil
}

// Role returns the role a principal holds, or empty when unknown.
func (d *MemoryDirectory) Role(principalID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.roles[principalID]
}
