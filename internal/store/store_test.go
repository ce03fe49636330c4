package store

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) failed: %v", err)
	}
	return s
}

func TestNewFileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpdhub.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New(%s) failed: %v", path, err)
	}
	defer s.Close()

	if s.HasSealer() {
		t.Fatal("expected no sealer without WithSealer")
	}
	if err := s.Ping(); err != nil {
		t.Fatalf("Ping() failed: %v", err)
	}
}

func TestNewUnwritableDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "mpdhub.db")
	if _, err := New(path); err == nil {
		t.Fatal("expected New to fail when the parent directory does not exist")
	}
}

func TestWithSealer(t *testing.T) {
	s := newTestStoreWithMigrations(t, WithSealer(newTestSealer(t)))
	if !s.HasSealer() {
		t.Fatal("expected HasSealer after WithSealer")
	}
}

func TestEntriesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpdhub.db")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Migrate(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if err := s.CreateEntry(newEntry("e1", "Den")); err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	s.Close()

	if err := s.Ping(); err == nil {
		t.Fatal("expected Ping() to fail after Close()")
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.GetEntry("e1")
	if err != nil {
		t.Fatalf("GetEntry() after reopen failed: %v", err)
	}
	if got.Title != "Den" {
		t.Fatalf("expected title Den, got %q", got.Title)
	}
}
