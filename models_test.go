package guardkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeName tests key and role name normalization.
func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"manage_orders", "manage_orders"},
		{"  Manage Orders  ", "manage_orders"},
		{"MANAGE   ORDERS", "manage_orders"},
		{"manage\torders", "manage_orders"},
		{"manage\n orders", "manage_orders"},
		{"   ", ""},
		{"", ""},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeName(c.in), "input %q", c.in)
	}
}

// TestNormalizeNameIdempotent tests Normalize(Normalize(x)) ==
// Normalize(x) over representative inputs.
func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"manage_orders", "  Manage Orders ", "A  B\tC", "", "   ", "x",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

// TestNormalizeKeys tests batch normalization with deduplication.
func TestNormalizeKeys(t *testing.T) {
	got := NormalizeKeys([]string{"Manage Orders", "manage_orders", "", "  ", "View Tickets"})
	assert.Equal(t, []string{"manage_orders", "view_tickets"}, got)

	assert.Empty(t, NormalizeKeys(nil))
	assert.Empty(t, NormalizeKeys([]string{"", "   "}))
}

// TestPermissionSet tests set construction and containment.
func TestPermissionSet(t *testing.T) {
	set := NewPermissionSet("manage_orders", "manage_services", "")

	assert.True(t, set.Has("manage_orders"))
	assert.False(t, set.Has("manage_users"))
	assert.False(t, set.Has(""))
	assert.Len(t, set, 2)

	assert.Equal(t, []string{"manage_orders", "manage_services"}, set.Keys())
}

// TestPermissionSetMissing tests the containment partition used by the
// permission gate.
func TestPermissionSetMissing(t *testing.T) {
	set := NewPermissionSet("manage_orders")

	assert.Nil(t, set.Missing("manage_orders"))
	assert.Equal(t, []string{"manage_users"}, set.Missing("manage_orders", "manage_users"))
	assert.Equal(t, []string{"a", "b"}, set.Missing("a", "b"))
	assert.Nil(t, set.Missing())
}

// TestRoleStatusValid tests the status enum.
func TestRoleStatusValid(t *testing.T) {
	assert.True(t, RoleStatusActive.Valid())
	assert.True(t, RoleStatusInactive.Valid())
	assert.False(t, RoleStatus("suspended").Valid())
	assert.False(t, RoleStatus("").Valid())
}

// TestKeyValidationOK tests the validation result.
func TestKeyValidationOK(t *testing.T) {
	assert.True(t, KeyValidation{Valid: []string{"a"}}.OK())
	assert.True(t, KeyValidation{}.OK())
	assert.False(t, KeyValidation{Missing: []string{"b"}}.OK())
}
