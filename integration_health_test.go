package guardkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServiceHealth tests the health surface against a live database.
func TestServiceHealth(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, _, err := SetupTestService(ctx)
	require.NoError(t, err)

	assert.True(t, service.IsHealthy(ctx))
	assert.NoError(t, service.Ping(ctx))

	status := service.Health(ctx)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Error)
}

// TestMigrationsIdempotent tests that running the migration set twice
// is safe.
func TestMigrationsIdempotent(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, _, err := SetupTestService(ctx)
	require.NoError(t, err)

	// SetupTestService already migrated once; a second pass applies
	// nothing and errors nothing.
	_, _, err = SetupTestService(ctx)
	require.NoError(t, err)

	assert.Len(t, service.Migrations(), 5)
}
