package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedTime is the timestamp used for test translations.
var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// createTestTranslation creates a translation with a fixed id and timestamp.
func createTestTranslation(id, sql, fingerprint, httpPath string) Translation {
	return Translation{
		ID:          id,
		SQL:         sql,
		Fingerprint: fingerprint,
		IR:          `{"type":"select"}`,
		HTTPPath:    httpPath,
		JSCode:      "const { data, error } = await supabase",
		CreatedAt:   fixedTime,
	}
}
