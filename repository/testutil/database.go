package testutil

import (
	"context"
	"testing"
	"time"

	"raffler/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const postgresImage = "postgres:16-alpine"

// TestDatabase is a migrated PostgreSQL container owned by one test
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *database.DB
	URL       string
}

// SetupTestDatabase starts a fresh PostgreSQL container, migrates it to the
// latest schema and opens a pool. Everything is torn down by t.Cleanup.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("raffler_test"),
		postgres.WithUsername("raffler"),
		postgres.WithPassword("raffler"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"app":  "raffler",
			"test": t.Name(),
		}),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrationsWithURL(url))

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := database.NewConnection(connectCtx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return &TestDatabase{Container: container, DB: db, URL: url}
}
