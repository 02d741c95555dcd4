package guardkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Service provides role and permission management. Managing access
// control is itself access-controlled: every operation requires the
// calling request's AuthContext (placed in ctx by the middleware) to
// meet the management floor rank, and role reassignment additionally
// requires the actor to outrank both sides of the change.
//
// Error Handling:
// Operations return guardkit sentinel errors wrapped with context;
// classify them with IsConflict, IsInvalidInput, IsNotFound,
// IsForbidden and friends. Database failures are classified through
// dbkit and surface as ErrStoreUnavailable.
type Service struct {
	db        dbkit.IDB
	hierarchy *Hierarchy
	catalog   *Catalog
	store     *AssignmentStore
	directory PrincipalDirectory
	floor     string
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithDirectory wires the external principal store. Without it,
// operations that need user records (DeleteRole, AssignUserRole) fail
// with ErrNoDirectory.
func WithDirectory(directory PrincipalDirectory) ServiceOption {
	return func(s *Service) {
		s.directory = directory
	}
}

// WithManagementFloor overrides the minimum rank required to call any
// management operation. The default is the second-highest role of the
// hierarchy.
func WithManagementFloor(role string) ServiceOption {
	return func(s *Service) {
		if r := NormalizeName(role); r != "" {
			s.floor = r
		}
	}
}

// NewService creates a management service.
//
// Example:
//
//	hierarchy := guardkit.DefaultHierarchy()
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := guardkit.NewService(db, hierarchy,
//	    guardkit.WithDirectory(userStore))
func NewService(db dbkit.IDB, hierarchy *Hierarchy, opts ...ServiceOption) *Service {
	s := &Service{
		db:        db,
		hierarchy: hierarchy,
		catalog:   NewCatalog(db),
		store:     NewAssignmentStore(db),
		floor:     defaultFloor(hierarchy),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// defaultFloor picks the second-highest rank, so by default the top
// role and its immediate deputies administer the system.
func defaultFloor(h *Hierarchy) string {
	roles := h.Roles()
	if len(roles) >= 2 {
		return roles[len(roles)-2]
	}
	return h.Top()
}

// Hierarchy returns the role hierarchy the service enforces.
func (s *Service) Hierarchy() *Hierarchy {
	return s.hierarchy
}

// Catalog returns the permission catalog.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Assignments returns the role assignment store. It implements
// PermissionLoader, so it plugs straight into NewAuthorizer.
func (s *Service) Assignments() *AssignmentStore {
	return s.store
}

// ManagementFloor returns the minimum rank required for management
// calls.
func (s *Service) ManagementFloor() string {
	return s.floor
}

// authorize enforces the management floor gate shared by every
// operation. It returns the acting principal for audit trails.
func (s *Service) authorize(ctx context.Context) (Principal, error) {
	actx := GetAuthContext(ctx)
	if !actx.Authenticated() {
		return Principal{}, NewError(ErrUnauthenticated, "management call without authenticated context")
	}
	actor := actx.Principal()
	if !s.hierarchy.IsAtLeast(actor.Role, s.floor) {
		return Principal{}, NewErrorf(ErrForbidden, "management requires at least %q", s.floor).
			WithActor(actor.ID)
	}
	return actor, nil
}

// transaction runs fn inside a transaction, with the catalog and store
// rebound to the transactional handle.
func (s *Service) transaction(ctx context.Context, fn func(tx dbkit.IDB, catalog *Catalog, store *AssignmentStore) error) error {
	return inTransaction(ctx, s.db, func(tx dbkit.IDB) error {
		return fn(tx, s.catalog.withDB(tx), s.store.withDB(tx))
	})
}
