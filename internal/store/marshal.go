package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

// Translation is one logged translation attempt.
type Translation struct {
	// ID is a UUIDv7, so IDs sort by creation time.
	ID  string `json:"id"`
	SQL string `json:"sql"`

	// Fingerprint and IR are empty when processing failed.
	Fingerprint string `json:"fingerprint,omitempty"`
	IR          string `json:"ir,omitempty"`

	// HTTPPath and JSCode are empty when the renderer failed.
	HTTPPath string `json:"http_path,omitempty"`
	JSCode   string `json:"js_code,omitempty"`

	// ErrorCode is a sqlerr code such as E_UNSUPPORTED.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Seq is the insertion order, assigned by the store.
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// Failed reports whether the translation recorded an error.
func (t Translation) Failed() bool {
	return t.ErrorCode != ""
}

// NewTranslation starts a log entry for sql with a fresh UUIDv7.
func NewTranslation(sql string, now time.Time) (Translation, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Translation{}, fmt.Errorf("new translation id: %w", err)
	}
	return Translation{
		ID:        id.String(),
		SQL:       sql,
		CreatedAt: now.UTC(),
	}, nil
}

// SetStatement records the statement's canonical IR and fingerprint.
func (t *Translation) SetStatement(stmt ir.Statement) error {
	data, err := ir.MarshalCanonical(stmt)
	if err != nil {
		return fmt.Errorf("marshal statement: %w", err)
	}
	fp, err := ir.Fingerprint(stmt)
	if err != nil {
		return fmt.Errorf("fingerprint statement: %w", err)
	}
	t.IR = string(data)
	t.Fingerprint = fp
	return nil
}

// SetError records err's code and message. Only the first error is kept.
func (t *Translation) SetError(err error) {
	if err == nil || t.ErrorCode != "" {
		return
	}
	t.ErrorCode = string(sqlerr.CodeOf(err))
	t.ErrorMessage = err.Error()
}

// formatTime and parseTime store timestamps as RFC 3339 text in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	return t, nil
}
