package store

import (
	"context"
	"database/sql"
	"fmt"
)

const translationColumns = `seq, id, sql_text, fingerprint, ir, http_path, js_code, error_code, error_message, created_at`

// ReadTranslation retrieves a single translation by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadTranslation(ctx context.Context, id string) (Translation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+translationColumns+`
		FROM translations
		WHERE id = ?
	`, id)

	return scanTranslation(row)
}

// ListTranslations returns the most recent translations, newest first.
// A limit of zero or less returns every translation.
func (s *Store) ListTranslations(ctx context.Context, limit int) ([]Translation, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+translationColumns+`
		FROM translations
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	return scanTranslations(rows)
}

// FindByFingerprint returns every translation whose statement has the
// given fingerprint, oldest first.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]Translation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+translationColumns+`
		FROM translations
		WHERE fingerprint = ?
		ORDER BY seq ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	defer rows.Close()

	return scanTranslations(rows)
}

// readAllTranslations returns every translation, oldest first.
func (s *Store) readAllTranslations(ctx context.Context) ([]Translation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+translationColumns+`
		FROM translations
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read translations: %w", err)
	}
	defer rows.Close()

	return scanTranslations(rows)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTranslation(row scanner) (Translation, error) {
	var t Translation
	var createdAt string

	if err := row.Scan(
		&t.Seq, &t.ID, &t.SQL, &t.Fingerprint, &t.IR,
		&t.HTTPPath, &t.JSCode, &t.ErrorCode, &t.ErrorMessage, &createdAt,
	); err != nil {
		return Translation{}, err
	}

	ts, err := parseTime(createdAt)
	if err != nil {
		return Translation{}, err
	}
	t.CreatedAt = ts

	return t, nil
}

func scanTranslations(rows *sql.Rows) ([]Translation, error) {
	translations := []Translation{}
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		translations = append(translations, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return translations, nil
}
