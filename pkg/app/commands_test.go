package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/config"
)

func useTempDB(t *testing.T) {
	t.Helper()
	config.Set("DB_DRIVER", "sqlite")
	config.Set("DATABASE_DSN", filepath.Join(t.TempDir(), "storefront.db"))
	t.Cleanup(func() { config.Set("DATABASE_DSN", "") })
}

func TestRouteListPrintsNamedRoutes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RouteList(&out))

	table := out.String()
	assert.Contains(t, table, "METHOD")
	assert.Contains(t, table, "/api/products/{id}")
	assert.Contains(t, table, "products.show")
	assert.Contains(t, table, "orders.live")
	assert.Contains(t, table, "/functions/createOrder")
}

func TestMigrateThenStatusThenSeed(t *testing.T) {
	useTempDB(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Migrate(ctx, &out))
	assert.Contains(t, out.String(), "migrated")

	out.Reset()
	require.NoError(t, Migrate(ctx, &out))
	assert.Contains(t, out.String(), "Nothing to migrate.")

	out.Reset()
	require.NoError(t, MigrationStatus(ctx, &out))
	assert.Contains(t, out.String(), "yes")
	assert.NotContains(t, out.String(), "no ")

	out.Reset()
	require.NoError(t, Seed(ctx, &out))
	assert.Contains(t, out.String(), "products")
}

func TestRollbackUndoesLastBatch(t *testing.T) {
	useTempDB(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Migrate(ctx, &out))

	out.Reset()
	require.NoError(t, Rollback(ctx, &out))
	assert.Contains(t, out.String(), "rolled back")

	out.Reset()
	require.NoError(t, Rollback(ctx, &out))
	assert.Contains(t, out.String(), "Nothing to roll back.")
}
