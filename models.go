package guardkit

import (
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// RoleStatus is the lifecycle state of a role.
type RoleStatus string

const (
	RoleStatusActive   RoleStatus = "active"
	RoleStatusInactive RoleStatus = "inactive"
)

// Valid reports whether the status is one of the defined values.
func (s RoleStatus) Valid() bool {
	return s == RoleStatusActive || s == RoleStatusInactive
}

// Role is a named privilege grouping. Its name must appear in the
// configured Hierarchy to be usable in enforcement decisions; roles
// outside the table rank as unknown and fail every minimum-rank check.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	Name        string     `bun:"name,pk"`
	Label       string     `bun:"label,notnull"`
	Description string     `bun:"description"`
	Status      RoleStatus `bun:"status,notnull,default:'active'"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// RoleUpdate is a partial update for UpdateRoleDetails. Nil fields are
// left unchanged.
type RoleUpdate struct {
	Label       *string
	Description *string
	Status      *RoleStatus
}

// Permission is an entry in the permission catalog.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p"`

	Key         string    `bun:"key,pk"`
	Label       string    `bun:"label,notnull"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RoleGrant represents "role grants permission". The pair is unique at
// the storage layer; rows are only ever written by replacing a role's
// full set.
type RoleGrant struct {
	bun.BaseModel `bun:"table:role_assignments,alias:ra"`

	RoleName      string    `bun:"role_name,pk"`
	PermissionKey string    `bun:"permission_key,pk"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Principal is the authenticated caller resolved once per request. It
// is immutable after construction and never persisted by guardkit.
type Principal struct {
	ID   string
	Role string
}

// NormalizeName canonicalizes a role name or permission key: leading
// and trailing whitespace is trimmed, the result is lowercased, and
// internal whitespace runs collapse to a single underscore. The
// function is idempotent.
func NormalizeName(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	return strings.Join(fields, "_")
}

// NormalizeKeys normalizes and deduplicates a batch of permission keys,
// dropping entries that are empty after normalization. Input order is
// preserved for the first occurrence of each key.
func NormalizeKeys(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = NormalizeName(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// PermissionSet is the set of permission keys a role holds.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a PermissionSet from normalized keys.
func NewPermissionSet(keys ...string) PermissionSet {
	set := make(PermissionSet, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether the set contains key.
func (s PermissionSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Missing returns the subset of keys not contained in the set, in the
// order given. Returns nil when every key is present.
func (s PermissionSet) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if !s.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Keys returns the set's keys in sorted order.
func (s PermissionSet) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// KeyValidation is the result of validating a batch of candidate keys
// against the catalog. Valid and Missing partition the normalized
// input: their union is the normalized set and they never overlap.
type KeyValidation struct {
	Valid   []string
	Missing []string
}

// OK reports whether every submitted key exists in the catalog.
func (v KeyValidation) OK() bool {
	return len(v.Missing) == 0
}
