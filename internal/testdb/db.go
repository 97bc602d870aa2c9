// Package testdb provides PostgreSQL connections for integration tests.
// Tests skip unless a database URL is configured. Under CI with
// READLIST_REQUIRE_DB set, a missing database fails the test instead.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/readlist-api/internal/ciutil"
	"github.com/phrazzld/readlist-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds setup and teardown statements.
const TestTimeout = 10 * time.Second

// GetTestDBWithT opens and migrates the configured test database. The
// connection is closed when the test ends.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := ciutil.TestDatabaseURL(nil)
	if dbURL == "" {
		if ciutil.IsCI() && os.Getenv(ciutil.EnvRequireDatabase) != "" {
			t.Fatalf("%s must be set when %s is set", ciutil.EnvTestDatabaseURL, ciutil.EnvRequireDatabase)
		}
		t.Skipf("%s not set; skipping integration test", ciutil.EnvTestDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, dbURL)
	require.NoError(t, err, "failed to connect to %s", ciutil.MaskSensitiveValue(dbURL))
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	require.NoError(t, postgres.Migrate(ctx, db, nil), "failed to migrate test database")
	return db
}

// ResetReadingItems empties the reading list now and again when the test
// ends, so tests sharing a database start from a clean table.
func ResetReadingItems(t *testing.T, db *sql.DB) {
	t.Helper()

	truncate := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()
		_, err := db.ExecContext(ctx, `TRUNCATE reading_items CASCADE`)
		return err
	}
	require.NoError(t, truncate(), "failed to reset reading_items")
	t.Cleanup(func() {
		if err := truncate(); err != nil {
			t.Logf("failed to reset reading_items: %v", err)
		}
	})
}
