package guardkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The management gate runs before any storage work, so its behavior is
// testable with a nil database: every denial below must surface without
// a single query.

func managementContext(t *testing.T, token string) context.Context {
	t.Helper()
	actx := testAuthorizer().Authenticate(context.Background(), token)
	return WithAuthContext(context.Background(), actx)
}

// TestServiceManagementFloor tests the default floor and its override.
func TestServiceManagementFloor(t *testing.T) {
	s := NewService(nil, DefaultHierarchy())
	assert.Equal(t, "owner", s.ManagementFloor())

	s = NewService(nil, DefaultHierarchy(), WithManagementFloor("admin"))
	assert.Equal(t, "admin", s.ManagementFloor())

	// Blank overrides keep the default.
	s = NewService(nil, DefaultHierarchy(), WithManagementFloor("  "))
	assert.Equal(t, "owner", s.ManagementFloor())

	// A single-role hierarchy floors at its only role.
	s = NewService(nil, NewHierarchy("root"))
	assert.Equal(t, "root", s.ManagementFloor())
}

// TestServiceRequiresAuthContext tests that operations without an
// authenticated context fail before touching storage.
func TestServiceRequiresAuthContext(t *testing.T) {
	s := NewService(nil, DefaultHierarchy())
	ctx := context.Background()

	_, err := s.ListRoles(ctx)
	assert.True(t, IsUnauthenticated(err))

	_, err = s.CreateRole(ctx, "vendor", "Vendor", "", nil)
	assert.True(t, IsUnauthenticated(err))

	err = s.AssignUserRole(ctx, "u1", "customer", "employee")
	assert.True(t, IsUnauthenticated(err))

	// An unauthenticated AuthContext in ctx denies the same way.
	ctx = WithAuthContext(ctx, testAuthorizer().Authenticate(ctx, "forged"))
	_, err = s.ListRoles(ctx)
	assert.True(t, IsUnauthenticated(err))
}

// TestServiceEnforcesFloor tests that callers below the management
// floor are rejected.
func TestServiceEnforcesFloor(t *testing.T) {
	s := NewService(nil, DefaultHierarchy())

	ctx := managementContext(t, "employee-token")

	_, err := s.ListRoles(ctx)
	assert.True(t, IsForbidden(err))

	_, err = s.CreateRole(ctx, "vendor", "Vendor", "", nil)
	assert.True(t, IsForbidden(err))

	err = s.DeleteRole(ctx, "vendor")
	assert.True(t, IsForbidden(err))
}

// TestServiceCreateRoleInput tests input validation ahead of storage.
func TestServiceCreateRoleInput(t *testing.T) {
	s := NewService(nil, DefaultHierarchy())
	ctx := managementContext(t, "admin-token")

	_, err := s.CreateRole(ctx, "  ", "Vendor", "", nil)
	assert.True(t, IsInvalidInput(err))

	_, err = s.CreateRole(ctx, "vendor", "   ", "", nil)
	assert.True(t, IsInvalidInput(err))
}

// TestServiceUpdateRoleDetailsStatus tests that a bad status is
// rejected before any write.
func TestServiceUpdateRoleDetailsStatus(t *testing.T) {
	s := NewService(nil, DefaultHierarchy())
	ctx := managementContext(t, "admin-token")

	bad := RoleStatus("retired")
	_, err := s.UpdateRoleDetails(ctx, "employee", RoleUpdate{Status: &bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.True(t, IsInvalidInput(err))
}

// TestServiceAssignUserRoleGates tests the manage-both-sides rule.
func TestServiceAssignUserRoleGates(t *testing.T) {
	s := NewService(nil, DefaultHierarchy(), WithDirectory(NewMemoryDirectory()))

	// An owner cannot touch another owner.
	ctx := managementContext(t, "owner-token")
	err := s.AssignUserRole(ctx, "u1", "owner", "employee")
	assert.True(t, IsForbidden(err))

	// Nor promote anyone to admin.
	err = s.AssignUserRole(ctx, "u1", "customer", "admin")
	assert.True(t, IsForbidden(err))

	// Missing principal id is invalid input.
	ctx = managementContext(t, "admin-token")
	err = s.AssignUserRole(ctx, "  ", "customer", "employee")
	assert.True(t, IsInvalidInput(err))
}

// TestServiceDirectoryRequired tests ErrNoDirectory for operations
// that need the principal store.
func TestServiceDirectoryRequired(t *testing.T) {
	s := NewService(nil, DefaultHierarchy())
	ctx := managementContext(t, "admin-token")

	err := s.DeleteRole(ctx, "employee")
	assert.ErrorIs(t, err, ErrNoDirectory)

	err = s.AssignUserRole(ctx, "u1", "customer", "employee")
	assert.ErrorIs(t, err, ErrNoDirectory)
}
