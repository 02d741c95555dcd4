package guardkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// AssignmentStore is the many-to-many mapping from role name to
// permission keys. It is a pure mapping primitive: it does not validate
// keys against the catalog (the management service does that before
// calling in) and it does not distinguish "role has no permissions"
// from "role name unknown".
type AssignmentStore struct {
	db dbkit.IDB
}

// NewAssignmentStore creates an assignment store backed by db.
func NewAssignmentStore(db dbkit.IDB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// withDB returns a store bound to another database handle, used to run
// store operations inside an enclosing transaction.
func (s *AssignmentStore) withDB(db dbkit.IDB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// ReplaceAssignments atomically replaces the full permission set of a
// role: every existing (roleName, *) row is deleted and the new set is
// inserted in one transaction. A concurrent reader sees either the old
// set or the new set, never an empty or mixed one. An empty key set is
// valid and leaves the role with zero assignments.
//
// Keys must already be validated against the catalog by the caller.
func (s *AssignmentStore) ReplaceAssignments(ctx context.Context, roleName string, permissionKeys []string) error {
	roleName = NormalizeName(roleName)
	if roleName == "" {
		return NewError(ErrInvalidInput, "role name is required")
	}
	keys := NormalizeKeys(permissionKeys)

	err := inTransaction(ctx, s.db, func(tx dbkit.IDB) error {
		result, err := tx.NewDelete().
			Table("role_assignments").
			Where("role_name = ?", roleName).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "ReplaceAssignmentsDelete").Err(); err != nil {
			return err
		}

		if len(keys) == 0 {
			return nil
		}

		grants := make([]*RoleGrant, len(keys))
		for i, key := range keys {
			grants[i] = &RoleGrant{RoleName: roleName, PermissionKey: key}
		}
		_, err = dbkit.BatchInsert(ctx, tx, grants, dbkit.BatchSize)
		return dbkit.WithErr1(err, "ReplaceAssignmentsInsert").Err()
	})
	if err != nil {
		return storeUnavailable(err)
	}
	return nil
}

// LoadPermissions returns the permission set a role currently holds.
// A role with no assignments and an unrecognized role name both yield
// an empty set, not an error; telling those apart belongs to the role
// lookup, not this layer.
func (s *AssignmentStore) LoadPermissions(ctx context.Context, roleName string) (PermissionSet, error) {
	roleName = NormalizeName(roleName)
	if roleName == "" {
		return NewPermissionSet(), nil
	}

	var keys []string
	err := dbkit.WithErr1(
		s.db.NewSelect().
			Model((*RoleGrant)(nil)).
			Column("permission_key").
			Where("role_name = ?", roleName).
			Scan(ctx, &keys),
		"LoadPermissions",
	).Err()
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return NewPermissionSet(keys...), nil
}

// deleteForRole removes every assignment row of a role. Used by the
// management service inside a delete-role transaction; the explicit
// two-step delete keeps cascade behavior out of the database engine.
func (s *AssignmentStore) deleteForRole(ctx context.Context, roleName string) error {
	result, err := s.db.NewDelete().
		Table("role_assignments").
		Where("role_name = ?", roleName).
		Exec(ctx)
	return dbkit.WithErr(result, err, "DeleteAssignmentsForRole").Err()
}

// deleteForPermission removes every assignment row referencing a
// permission key. Used inside a delete-permission transaction.
func (s *AssignmentStore) deleteForPermission(ctx context.Context, permissionKey string) error {
	result, err := s.db.NewDelete().
		Table("role_assignments").
		Where("permission_key = ?", permissionKey).
		Exec(ctx)
	return dbkit.WithErr(result, err, "DeleteAssignmentsForPermission").Err()
}
