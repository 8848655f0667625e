package store

import (
	"context"
	"fmt"
)

// WriteTranslation inserts a translation record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., NOT NULL) will still return errors.
//
// The IR is stored exactly as given, which for entries built with
// SetStatement is RFC 8785 canonical JSON.
func (s *Store) WriteTranslation(ctx context.Context, t Translation) error {
	if t.ID == "" {
		return fmt.Errorf("write translation: id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO translations
		(id, sql_text, fingerprint, ir, http_path, js_code, error_code, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		t.ID,
		t.SQL,
		t.Fingerprint,
		t.IR,
		t.HTTPPath,
		t.JSCode,
		t.ErrorCode,
		t.ErrorMessage,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("write translation: %w", err)
	}

	return nil
}
