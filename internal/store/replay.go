package store

import (
	"context"
	"fmt"
)

// TranslateFunc re-translates a logged SQL statement. It returns a
// Translation with the statement and rendering fields filled in; ID, SQL
// and timestamps are ignored.
type TranslateFunc func(ctx context.Context, sql string) (Translation, error)

// Drift is a logged translation whose output differs from a replay.
type Drift struct {
	ID     string
	SQL    string
	Before Translation
	After  Translation
}

// Fields lists the names of the fields that differ.
func (d Drift) Fields() []string {
	var fields []string
	if d.Before.Fingerprint != d.After.Fingerprint {
		fields = append(fields, "fingerprint")
	}
	if d.Before.HTTPPath != d.After.HTTPPath {
		fields = append(fields, "http")
	}
	if d.Before.JSCode != d.After.JSCode {
		fields = append(fields, "js")
	}
	if d.Before.ErrorCode != d.After.ErrorCode {
		fields = append(fields, "error")
	}
	return fields
}

// ReplayResult summarizes a replay over the whole log.
type ReplayResult struct {
	// Checked is the number of translations replayed.
	Checked int

	// Drifts lists translations whose output changed, oldest first.
	Drifts []Drift
}

// Replay re-translates every logged statement, oldest first, and reports
// those whose fingerprint, renderings or error code changed. Error
// messages are not compared so that wording changes do not count as drift.
//
// Replay never writes to the store.
func (s *Store) Replay(ctx context.Context, translate TranslateFunc) (ReplayResult, error) {
	var result ReplayResult

	logged, err := s.readAllTranslations(ctx)
	if err != nil {
		return result, fmt.Errorf("replay: %w", err)
	}

	for _, before := range logged {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("replay: %w", err)
		}

		after, err := translate(ctx, before.SQL)
		if err != nil {
			return result, fmt.Errorf("replay %s: %w", before.ID, err)
		}
		result.Checked++

		d := Drift{ID: before.ID, SQL: before.SQL, Before: before, After: after}
		if len(d.Fields()) > 0 {
			result.Drifts = append(result.Drifts, d)
		}
	}

	return result, nil
}
