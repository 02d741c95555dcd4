package guardkit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniqueName generates a key or role name that won't collide across
// test runs against a shared database.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// TestCatalogCreateAndGet tests permission creation with real storage.
func TestCatalogCreateAndGet(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, _, err := SetupTestService(ctx)
	require.NoError(t, err)

	catalog := service.Catalog()
	key := uniqueName("manage_orders")

	perm, err := catalog.Create(ctx, key, "Manage Orders", "Create and edit orders")
	require.NoError(t, err)
	assert.Equal(t, key, perm.Key)
	assert.Equal(t, "Manage Orders", perm.Label)

	got, err := catalog.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, got.Key)

	_, err = catalog.Get(ctx, uniqueName("never_created"))
	assert.True(t, IsNotFound(err))
}

// TestCatalogCreateNormalizes tests that keys are normalized before
// storage and the duplicate check.
func TestCatalogCreateNormalizes(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, _, err := SetupTestService(ctx)
	require.NoError(t, err)

	catalog := service.Catalog()
	base := uniqueName("issue_refunds")

	perm, err := catalog.Create(ctx, "  "+base+"  ", "Issue Refunds", "")
	require.NoError(t, err)
	assert.Equal(t, base, perm.Key)

	// The messy spelling normalizes to the same key, so it collides.
	_, err = catalog.Create(ctx, "  "+base+" ", "Issue Refunds", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.True(t, IsConflict(err))
}

// TestCatalogCreateInvalidInput tests the empty-after-normalization
// rejections.
func TestCatalogCreateInvalidInput(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, _, err := SetupTestService(ctx)
	require.NoError(t, err)

	catalog := service.Catalog()

	_, err = catalog.Create(ctx, "   ", "Blank", "")
	assert.True(t, IsInvalidInput(err))

	_, err = catalog.Create(ctx, uniqueName("ok"), "   ", "")
	assert.True(t, IsInvalidInput(err))
}

// TestCatalogListOrder tests the stable creation-order listing.
func TestCatalogListOrder(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, _, err := SetupTestService(ctx)
	require.NoError(t, err)

	catalog := service.Catalog()
	first := uniqueName("list_a")
	second := uniqueName("list_b")

	_, err = catalog.Create(ctx, first, "A", "")
	require.NoError(t, err)
	_, err = catalog.Create(ctx, second, "B", "")
	require.NoError(t, err)

	perms, err := catalog.List(ctx)
	require.NoError(t, err)

	posFirst, posSecond := -1, -1
	for i, p := range perms {
		switch p.Key {
		case first:
			posFirst = i
		case second:
			posSecond = i
		}
	}
	require.NotEqual(t, -1, posFirst)
	require.NotEqual(t, -1, posSecond)
	assert.Less(t, posFirst, posSecond)
}

// TestCatalogValidatePartition tests that validation reports the
// complete partition, not just the first unknown key.
func TestCatalogValidatePartition(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, _, err := SetupTestService(ctx)
	require.NoError(t, err)

	catalog := service.Catalog()
	known := uniqueName("known")
	unknownA := uniqueName("unknown_a")
	unknownB := uniqueName("unknown_b")

	_, err = catalog.Create(ctx, known, "Known", "")
	require.NoError(t, err)

	validation, err := catalog.Validate(ctx, []string{known, unknownA, unknownB})
	require.NoError(t, err)
	assert.False(t, validation.OK())
	assert.Equal(t, []string{known}, validation.Valid)
	assert.Equal(t, []string{unknownA, unknownB}, validation.Missing)

	// An all-known batch validates clean.
	validation, err = catalog.Validate(ctx, []string{known, " " + known})
	require.NoError(t, err)
	assert.True(t, validation.OK())
	assert.Equal(t, []string{known}, validation.Valid)

	// An empty batch is trivially valid.
	validation, err = catalog.Validate(ctx, nil)
	require.NoError(t, err)
	assert.True(t, validation.OK())
}
