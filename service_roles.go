package guardkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// ROLE MANAGEMENT
// ============================================================================

// CreateRole creates a role with an initial permission set. The name
// is normalized; a role whose normalized name exists fails with
// ErrDuplicateRole (the storage-level primary key decides, so two
// concurrent creates cannot both win). Initial permissions are
// validated against the catalog first, and the failure names every
// unknown key, not just the first.
func (s *Service) CreateRole(ctx context.Context, name, label, description string, initialPermissions []string) (*Role, error) {
	actor, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	name = NormalizeName(name)
	label = trimmed(label)
	if name == "" || label == "" {
		return nil, NewError(ErrInvalidInput, "role name and label are required")
	}

	role := &Role{
		Name:        name,
		Label:       label,
		Description: trimmed(description),
		Status:      RoleStatusActive,
	}

	err = s.transaction(ctx, func(tx dbkit.IDB, catalog *Catalog, store *AssignmentStore) error {
		validation, err := catalog.Validate(ctx, initialPermissions)
		if err != nil {
			return err
		}
		if !validation.OK() {
			return NewError(ErrUnknownPermissions, "initial permission set").
				WithRole(name).
				WithKeys(validation.Missing...)
		}

		result, err := tx.NewInsert().Model(role).Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreateRole").Err(); err != nil {
			if dbkit.IsDuplicate(err) {
				return NewErrorf(ErrDuplicateRole, "role %q already exists", name)
			}
			return storeUnavailable(err)
		}

		if err := store.ReplaceAssignments(ctx, name, validation.Valid); err != nil {
			return err
		}

		return logAudit(ctx, tx, actor, AuditRoleCreated, AuditRecord{
			RoleName:       name,
			PermissionKeys: validation.Valid,
		})
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// GetRole fetches a role by normalized name.
func (s *Service) GetRole(ctx context.Context, name string) (*Role, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	return s.getRole(ctx, s.db, name)
}

func (s *Service) getRole(ctx context.Context, db dbkit.IDB, name string) (*Role, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, NewError(ErrInvalidInput, "role name is required")
	}

	role := new(Role)
	err := dbkit.WithErr1(db.NewSelect().Model(role).Where("name = ?", name).Scan(ctx), "GetRole").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewErrorf(ErrNotFound, "role %q", name)
		}
		return nil, storeUnavailable(err)
	}
	return role, nil
}

// ListRoles returns every role ordered by creation time.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}

	var roles []Role
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&roles).Order("created_at ASC", "name ASC").Scan(ctx),
		"ListRoles",
	).Err()
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return roles, nil
}

// UpdateRoleDetails applies a partial update: only non-nil fields of
// update change. A provided status outside the defined values fails
// with ErrInvalidStatus before anything is written.
func (s *Service) UpdateRoleDetails(ctx context.Context, name string, update RoleUpdate) (*Role, error) {
	actor, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	if update.Status != nil && !update.Status.Valid() {
		return nil, NewErrorf(ErrInvalidStatus, "status %q", *update.Status)
	}

	var role *Role
	err = s.transaction(ctx, func(tx dbkit.IDB, _ *Catalog, _ *AssignmentStore) error {
		role, err = s.getRole(ctx, tx, name)
		if err != nil {
			return err
		}

		if update.Label != nil {
			label := trimmed(*update.Label)
			if label == "" {
				return NewError(ErrInvalidInput, "role label cannot be empty")
			}
			role.Label = label
		}
		if update.Description != nil {
			role.Description = trimmed(*update.Description)
		}
		if update.Status != nil {
			role.Status = *update.Status
		}
		role.UpdatedAt = time.Now()

		result, err := tx.NewUpdate().
			Model(role).
			Column("label", "description", "status", "updated_at").
			WherePK().
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "UpdateRoleDetails").Err(); err != nil {
			return storeUnavailable(err)
		}

		return logAudit(ctx, tx, actor, AuditRoleUpdated, AuditRecord{
			RoleName: role.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// UpdateRolePermissions replaces a role's permission set with exactly
// the submitted keys. This is the only way permission sets change;
// there is no incremental add or remove, so the set a role holds is
// always the last full set submitted. The whole batch is validated
// first and a failure reports every unknown key.
func (s *Service) UpdateRolePermissions(ctx context.Context, name string, permissionKeys []string) (*Role, error) {
	actor, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	var role *Role
	err = s.transaction(ctx, func(tx dbkit.IDB, catalog *Catalog, store *AssignmentStore) error {
		role, err = s.getRole(ctx, tx, name)
		if err != nil {
			return err
		}

		validation, err := catalog.Validate(ctx, permissionKeys)
		if err != nil {
			return err
		}
		if !validation.OK() {
			return NewError(ErrUnknownPermissions, "permission set").
				WithRole(role.Name).
				WithKeys(validation.Missing...)
		}

		if err := store.ReplaceAssignments(ctx, role.Name, validation.Valid); err != nil {
			return err
		}

		return logAudit(ctx, tx, actor, AuditRolePermissionsSet, AuditRecord{
			RoleName:       role.Name,
			PermissionKeys: validation.Valid,
		})
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole removes a role and, in the same transaction, every
// assignment row it owns. It fails with ErrRoleInUse while any
// principal still holds the role, so no user record is ever orphaned
// onto an undefined role.
func (s *Service) DeleteRole(ctx context.Context, name string) error {
	actor, err := s.authorize(ctx)
	if err != nil {
		return err
	}
	if s.directory == nil {
		return NewError(ErrNoDirectory, "DeleteRole needs a principal directory to check role usage")
	}

	return s.transaction(ctx, func(tx dbkit.IDB, _ *Catalog, store *AssignmentStore) error {
		role, err := s.getRole(ctx, tx, name)
		if err != nil {
			return err
		}

		holders, err := s.directory.CountByRole(ctx, role.Name)
		if err != nil {
			return storeUnavailable(err)
		}
		if holders > 0 {
			return NewErrorf(ErrRoleInUse, "%d principal(s) still hold role %q", holders, role.Name).
				WithRole(role.Name)
		}

		if err := store.deleteForRole(ctx, role.Name); err != nil {
			return storeUnavailable(err)
		}

		result, err := tx.NewDelete().Model(role).WherePK().Exec(ctx)
		if err := dbkit.WithErr(result, err, "DeleteRole").Err(); err != nil {
			return storeUnavailable(err)
		}

		return logAudit(ctx, tx, actor, AuditRoleDeleted, AuditRecord{
			RoleName: role.Name,
		})
	})
}

// AssignUserRole changes the role a principal holds. The actor must be
// able to manage both the role the principal currently holds and the
// requested role, which blocks privilege escalation by reassignment:
// an owner can neither promote a customer to admin nor touch another
// owner. Demoting the sole remaining holder of the top role fails with
// ErrLastAdmin, so the system can never lose its last administrator
// through this service.
func (s *Service) AssignUserRole(ctx context.Context, principalID, currentRole, requestedRole string) error {
	actor, err := s.authorize(ctx)
	if err != nil {
		return err
	}
	if s.directory == nil {
		return NewError(ErrNoDirectory, "AssignUserRole needs a principal directory to apply the change")
	}

	if trimmed(principalID) == "" {
		return NewError(ErrInvalidInput, "principal id is required")
	}
	currentRole = NormalizeName(currentRole)
	requestedRole = NormalizeName(requestedRole)

	if !s.hierarchy.CanManage(actor.Role, currentRole) || !s.hierarchy.CanManage(actor.Role, requestedRole) {
		return NewErrorf(ErrForbidden, "actor cannot manage roles %q and %q", currentRole, requestedRole).
			WithActor(actor.ID)
	}

	// The requested role must exist as a managed role row; the rank
	// gate alone would let a high-ranked actor strand a user on an
	// undefined role name.
	if _, err := s.getRole(ctx, s.db, requestedRole); err != nil {
		return err
	}

	top := s.hierarchy.Top()
	if currentRole == top && requestedRole != top {
		holders, err := s.directory.CountByRole(ctx, top)
		if err != nil {
			return storeUnavailable(err)
		}
		if holders <= 1 {
			return NewErrorf(ErrLastAdmin, "principal %s is the last holder of %q", principalID, top).
				WithRole(top)
		}
	}

	if err := s.directory.SetRole(ctx, principalID, requestedRole); err != nil {
		return storeUnavailable(err)
	}

	return logAudit(ctx, s.db, actor, AuditPrincipalRoleChanged, AuditRecord{
		RoleName:    requestedRole,
		PrincipalID: principalID,
	})
}
