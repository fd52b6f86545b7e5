// Package test provides a migrated store for integration tests.
package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/db"
)

// NewTestingStore returns a migrated store for the driver named by
// DRIVER (sqlite by default). Postgres tests read their DSN from
// POSTGRES_TEST_DSN and are skipped without one.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	p := getTestingProfile(t)
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p := &profile.Profile{
		Mode:      "dev",
		Driver:    getDriverFromEnv(),
		CreatorID: 1,
	}
	switch p.Driver {
	case "postgres":
		p.DSN = os.Getenv("POSTGRES_TEST_DSN")
		if p.DSN == "" {
			t.Skip("POSTGRES_TEST_DSN is not set")
		}
	default:
		p.Data = t.TempDir()
		p.DSN = filepath.Join(p.Data, "notegraph_test.db")
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("invalid testing profile: %v", err)
	}
	return p
}

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}
