package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/sql2rest/internal/sqlerr"
)

// AssertionError is returned when a case expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Field    string // Expectation that failed: http, js, error, ...
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "%s mismatch\n", e.Field)

	// Multi-line output reads better on its own lines.
	if strings.Contains(e.Expected, "\n") || strings.Contains(e.Actual, "\n") {
		fmt.Fprintf(&buf, "  Expected:\n%s\n", indentLines(e.Expected))
		fmt.Fprintf(&buf, "  Actual:\n%s", indentLines(e.Actual))
		return buf.String()
	}

	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func indentLines(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

// assertOutput compares rendered output against the expectation. An
// empty expectation is not checked.
func assertOutput(field, want, wantErr, got string) error {
	if wantErr != "" {
		return &AssertionError{
			Field:    field,
			Expected: wantErr + " error",
			Actual:   got,
		}
	}
	if want == "" || want == got {
		return nil
	}
	return &AssertionError{
		Field:    field,
		Expected: want,
		Actual:   got,
	}
}

// assertErrorKind checks err against the expected error kind. An empty
// kind expects no error.
func assertErrorKind(field, kind string, err error) error {
	got := sqlerr.Kind(err)
	if got == kind {
		return nil
	}

	actual := "no error"
	if err != nil {
		actual = fmt.Sprintf("%s error: %v", got, err)
	}
	expected := "no error"
	if kind != "" {
		expected = kind + " error"
	}

	return &AssertionError{
		Field:    field,
		Expected: expected,
		Actual:   actual,
	}
}
