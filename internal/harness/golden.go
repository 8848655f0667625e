package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as plain text for golden comparison: one
// block per case with whatever each stage produced.
func Snapshot(result *Result) []byte {
	var b strings.Builder
	b.WriteString("# " + result.Suite + "\n")

	for _, c := range result.Cases {
		b.WriteString("\n## " + c.Name + "\n")
		if c.Error != "" {
			b.WriteString("-- error: " + c.Error + "\n" + c.Message + "\n")
			continue
		}

		if c.HTTPError != "" {
			b.WriteString("-- http: " + c.HTTPError + "\n")
		} else {
			b.WriteString("-- http\n" + c.HTTP + "\n")
		}

		if c.JSError != "" {
			b.WriteString("-- js: " + c.JSError + "\n")
		} else {
			b.WriteString("-- js\n" + c.JS + "\n")
		}
	}

	return []byte(b.String())
}

// RunWithGolden executes a suite and compares its snapshot against
// testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also assert on pass/fail.
func RunWithGolden(t *testing.T, suite *Suite) *Result {
	t.Helper()

	result := Run(context.Background(), suite)
	AssertGolden(t, suite.Name, Snapshot(result))
	return result
}

// AssertGolden compares data against testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, data []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
