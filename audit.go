package guardkit

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// AuditAction is the kind of management mutation recorded.
type AuditAction string

const (
	AuditRoleCreated          AuditAction = "role_created"
	AuditRoleUpdated          AuditAction = "role_updated"
	AuditRolePermissionsSet   AuditAction = "role_permissions_set"
	AuditRoleDeleted          AuditAction = "role_deleted"
	AuditPermissionCreated    AuditAction = "permission_created"
	AuditPermissionDeleted    AuditAction = "permission_deleted"
	AuditPrincipalRoleChanged AuditAction = "principal_role_changed"
)

// AuditRecord is one management mutation, written in the same
// transaction as the change it describes.
type AuditRecord struct {
	bun.BaseModel `bun:"table:authz_audit_log,alias:al"`

	ID        string      `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time   `bun:"timestamp,notnull,default:current_timestamp"`
	ActorID   string      `bun:"actor_id,notnull"`
	ActorRole string      `bun:"actor_role,notnull"`
	Action    AuditAction `bun:"action,notnull"`

	// Target of the action.
	RoleName       string   `bun:"role_name"`
	PrincipalID    string   `bun:"principal_id"`
	PermissionKeys []string `bun:"permission_keys,type:text[]"`

	// Request correlation.
	RequestID string `bun:"request_id"`
}

// logAudit writes one audit row against the given handle, which inside
// a service transaction is the transactional one: the audit row commits
// or rolls back with the mutation it describes.
func logAudit(ctx context.Context, db dbkit.IDB, actor Principal, action AuditAction, rec AuditRecord) error {
	rec.ActorID = actor.ID
	rec.ActorRole = actor.Role
	rec.Action = action
	rec.RequestID = GetRequestID(ctx)

	_, err := db.NewInsert().Model(&rec).Exec(ctx)
	return dbkit.WithErr1(err, "LogAudit").Err()
}

// AuditFilter provides options for filtering audit log queries.
type AuditFilter struct {
	// Filter by actor who performed the action
	ActorID string

	// Filter by affected role
	RoleName string

	// Filter by affected principal
	PrincipalID string

	// Filter by action type
	Action AuditAction

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditFilter creates an AuditFilter with default values.
func NewAuditFilter() AuditFilter {
	return AuditFilter{
		Limit: 100,
	}
}

// WithActor sets the actor ID filter.
func (f AuditFilter) WithActor(actorID string) AuditFilter {
	f.ActorID = actorID
	return f
}

// WithRole sets the affected-role filter.
func (f AuditFilter) WithRole(roleName string) AuditFilter {
	f.RoleName = NormalizeName(roleName)
	return f
}

// WithPrincipal sets the affected-principal filter.
func (f AuditFilter) WithPrincipal(principalID string) AuditFilter {
	f.PrincipalID = principalID
	return f
}

// WithAction sets the action filter.
func (f AuditFilter) WithAction(action AuditAction) AuditFilter {
	f.Action = action
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditFilter) WithTimeRange(since, until time.Time) AuditFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f AuditFilter) WithPagination(limit, offset int) AuditFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// GetAuditLog retrieves audit entries, newest first. Like every other
// management call it requires the caller to meet the management floor.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditFilter) ([]AuditRecord, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}

	var records []AuditRecord
	q := s.db.NewSelect().Model(&records)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.RoleName != "" {
		q = q.Where("role_name = ?", filter.RoleName)
	}
	if filter.PrincipalID != "" {
		q = q.Where("principal_id = ?", filter.PrincipalID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	q = q.Limit(limit)
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	q = q.Order("timestamp DESC")

	if err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err(); err != nil {
		return nil, storeUnavailable(err)
	}
	return records, nil
}
