package guardkit

import (
	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required for GuardKit.
// Use dbkit.Migrate(ctx, service.Migrations()) or db.Migrate to run
// them. Uniqueness is enforced here, at the storage layer, so a
// check-then-insert race can never create a duplicate role,
// permission, or assignment pair.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "guardkit-001",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    name TEXT PRIMARY KEY,
                    label TEXT NOT NULL,
                    description TEXT NOT NULL DEFAULT '',
                    status TEXT NOT NULL DEFAULT 'active',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "guardkit-002",
			Description: "Create permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permissions (
                    key TEXT PRIMARY KEY,
                    label TEXT NOT NULL,
                    description TEXT NOT NULL DEFAULT '',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "guardkit-003",
			Description: "Create role_assignments table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_assignments (
                    role_name TEXT NOT NULL,
                    permission_key TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (role_name, permission_key)
                )`,
		},
		{
			ID:          "guardkit-004",
			Description: "Create authz_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS authz_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    actor_role TEXT NOT NULL,
                    action TEXT NOT NULL,
                    role_name TEXT,
                    principal_id TEXT,
                    permission_keys TEXT[],
                    request_id TEXT
                )`,
		},
		{
			ID:          "guardkit-005",
			Description: "Index audit log by timestamp",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_authz_audit_log_timestamp
                    ON authz_audit_log (timestamp DESC)`,
		},
	}
}
