package guardkit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// Catalog is the set of valid permission keys. Keys are created and
// validated independently of roles; the assignment store trusts its
// callers to validate against the catalog first.
type Catalog struct {
	db dbkit.IDB
}

// NewCatalog creates a permission catalog backed by db.
func NewCatalog(db dbkit.IDB) *Catalog {
	return &Catalog{db: db}
}

// withDB returns a catalog bound to another database handle, used to
// run catalog operations inside an enclosing transaction.
func (c *Catalog) withDB(db dbkit.IDB) *Catalog {
	return &Catalog{db: db}
}

// Create inserts a new permission. The key is normalized before the
// uniqueness check; the check itself is the storage-level primary key,
// so a concurrent duplicate insert loses cleanly instead of racing.
func (c *Catalog) Create(ctx context.Context, key, label, description string) (*Permission, error) {
	key = NormalizeName(key)
	label = trimmed(label)
	if key == "" || label == "" {
		return nil, NewError(ErrInvalidInput, "permission key and label are required")
	}

	perm := &Permission{
		Key:         key,
		Label:       label,
		Description: trimmed(description),
	}

	result, err := c.db.NewInsert().Model(perm).Exec(ctx)
	err = dbkit.WithErr(result, err, "CreatePermission").Err()
	if err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewErrorf(ErrDuplicateKey, "permission %q already exists", key)
		}
		return nil, storeUnavailable(err)
	}
	return perm, nil
}

// Get fetches a permission by key.
func (c *Catalog) Get(ctx context.Context, key string) (*Permission, error) {
	key = NormalizeName(key)
	if key == "" {
		return nil, NewError(ErrInvalidInput, "permission key is required")
	}

	perm := new(Permission)
	err := dbkit.WithErr1(c.db.NewSelect().Model(perm).Where("key = ?", key).Scan(ctx), "GetPermission").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewErrorf(ErrNotFound, "permission %q", key)
		}
		return nil, storeUnavailable(err)
	}
	return perm, nil
}

// List returns every permission in creation order. The order is stable
// across calls: creation time first, key as tie-breaker.
func (c *Catalog) List(ctx context.Context) ([]Permission, error) {
	var perms []Permission
	err := dbkit.WithErr1(
		c.db.NewSelect().Model(&perms).Order("created_at ASC", "key ASC").Scan(ctx),
		"ListPermissions",
	).Err()
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return perms, nil
}

// Validate partitions candidate keys into those present in the catalog
// and those missing from it. Every key is normalized first and the
// whole batch is checked rather than failing on the first unknown key,
// so callers can report the complete missing set in one pass.
//
// The returned partition covers the normalized input exactly: every
// key lands in Valid or Missing, never both.
func (c *Catalog) Validate(ctx context.Context, keys []string) (KeyValidation, error) {
	normalized := NormalizeKeys(keys)
	if len(normalized) == 0 {
		return KeyValidation{}, nil
	}

	var existing []string
	err := dbkit.WithErr1(
		c.db.NewSelect().
			Model((*Permission)(nil)).
			Column("key").
			Where("key IN (?)", bun.In(normalized)).
			Scan(ctx, &existing),
		"ValidatePermissions",
	).Err()
	if err != nil {
		return KeyValidation{}, storeUnavailable(err)
	}

	known := NewPermissionSet(existing...)
	result := KeyValidation{}
	for _, k := range normalized {
		if known.Has(k) {
			result.Valid = append(result.Valid, k)
		} else {
			result.Missing = append(result.Missing, k)
		}
	}
	return result, nil
}
