// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/taskvault/taskvault/internal/repository"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// NewTestRepository connects to the test database, applies the schema,
// and truncates the tables so each test starts from a clean slate.
// Skips the test when TEST_DATABASE_URL is not set.
func NewTestRepository(t testing.TB) *repository.Repository {
	t.Helper()

	databaseURL := RequireEnv(t, "TEST_DATABASE_URL")

	ctx := context.Background()
	repo, err := repository.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(repo.Close)

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	if err := repo.Truncate(ctx); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return repo
}
