package guardkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// PERMISSION MANAGEMENT
// ============================================================================

// CreatePermission adds a key to the permission catalog.
func (s *Service) CreatePermission(ctx context.Context, key, label, description string) (*Permission, error) {
	actor, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	var perm *Permission
	err = s.transaction(ctx, func(tx dbkit.IDB, catalog *Catalog, _ *AssignmentStore) error {
		perm, err = catalog.Create(ctx, key, label, description)
		if err != nil {
			return err
		}
		return logAudit(ctx, tx, actor, AuditPermissionCreated, AuditRecord{
			PermissionKeys: []string{perm.Key},
		})
	})
	if err != nil {
		return nil, err
	}
	return perm, nil
}

// ListPermissions returns the catalog in creation order.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	return s.catalog.List(ctx)
}

// ValidatePermissions partitions candidate keys against the catalog
// without mutating anything. Exposed so administrative clients can
// pre-flight a batch before submitting it.
func (s *Service) ValidatePermissions(ctx context.Context, keys []string) (KeyValidation, error) {
	if _, err := s.authorize(ctx); err != nil {
		return KeyValidation{}, err
	}
	return s.catalog.Validate(ctx, keys)
}

// DeletePermission removes a permission and, in the same transaction,
// every assignment row referencing it. The cascade is the explicit
// two-step delete rather than a database engine feature, so the same
// logic holds on any backing store.
func (s *Service) DeletePermission(ctx context.Context, key string) error {
	actor, err := s.authorize(ctx)
	if err != nil {
		return err
	}

	return s.transaction(ctx, func(tx dbkit.IDB, catalog *Catalog, store *AssignmentStore) error {
		perm, err := catalog.Get(ctx, key)
		if err != nil {
			return err
		}

		if err := store.deleteForPermission(ctx, perm.Key); err != nil {
			return storeUnavailable(err)
		}

		result, err := tx.NewDelete().Model(perm).WherePK().Exec(ctx)
		if err := dbkit.WithErr(result, err, "DeletePermission").Err(); err != nil {
			return storeUnavailable(err)
		}

		return logAudit(ctx, tx, actor, AuditPermissionDeleted, AuditRecord{
			PermissionKeys: []string{perm.Key},
		})
	})
}

// RolePermissions returns the permission set a role currently holds.
func (s *Service) RolePermissions(ctx context.Context, name string) (PermissionSet, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if _, err := s.getRole(ctx, s.db, name); err != nil {
		return nil, err
	}
	return s.store.LoadPermissions(ctx, name)
}
