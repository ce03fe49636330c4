package store

import (
	"testing"

	"mpdhub/migrations"
)

func newTestStoreWithMigrations(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(":memory:", opts...)
	if err != nil {
		t.Fatalf("New(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.MigrateFS(migrations.FS); err != nil {
		t.Fatalf("MigrateFS() failed: %v", err)
	}
	return s
}
