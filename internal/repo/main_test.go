package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pkordes/wanderlust/backend/testutil"
)

// TestMain migrates the test database once for the whole package. Without
// TEST_DATABASE_URL the Postgres cases skip themselves and only the memory
// store runs.
func TestMain(m *testing.M) {
	if dsn := os.Getenv(testutil.DSNEnv); dsn != "" {
		if err := testutil.Migrate(context.Background(), dsn); err != nil {
			log.Fatalf("repo TestMain: %v", err)
		}
	}
	os.Exit(m.Run())
}
