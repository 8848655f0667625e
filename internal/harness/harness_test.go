package harness

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sql2rest/internal/renderjs"
)

const equalJS = "const { data, error } = await supabase\n  .from('books')\n  .select()\n  .eq('title', 'Cheese')"

func TestRun_Pass(t *testing.T) {
	suite := &Suite{
		Name: "pass",
		Cases: []Case{
			{
				Name: "equal",
				SQL:  "select * from books where title = 'Cheese'",
				HTTP: "/books?title=eq.Cheese",
				JS:   equalJS,
			},
			{Name: "unchecked output", SQL: "select title from books"},
			{Name: "offset only", SQL: "select * from books offset 10", HTTP: "/books?offset=10", JSError: "render"},
			{Name: "having", SQL: "select count(*) from books having count(*) > 1", Error: "unsupported"},
			{Name: "syntax", SQL: "select title, from books", Error: "parsing"},
			{Name: "insert", SQL: "insert into books (title) values ('x')", Error: "unimplemented"},
		},
	}

	result := Run(context.Background(), suite)

	assert.True(t, result.Pass, "failed: %v", result.Failed())
	assert.Equal(t, "pass", result.Suite)
	require.Len(t, result.Cases, 6)
	assert.Empty(t, result.Failed())

	assert.Equal(t, "/books?select=title", result.Cases[1].HTTP)
	assert.Equal(t, "render", result.Cases[2].JSError)
	assert.Contains(t, result.Cases[2].Message, "supabase-js")
	assert.Equal(t, "The HAVING clause is not supported", result.Cases[3].Message)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name      string
		c         Case
		wantField string
	}{
		{
			name:      "http mismatch",
			c:         Case{Name: "c", SQL: "select * from books where title = 'Cheese'", HTTP: "/books?title=eq.Salsa"},
			wantField: "http mismatch",
		},
		{
			name:      "js mismatch",
			c:         Case{Name: "c", SQL: "select * from books", JS: "nope"},
			wantField: "js mismatch",
		},
		{
			name:      "expected error but translated",
			c:         Case{Name: "c", SQL: "select * from books", Error: "unsupported"},
			wantField: "error mismatch",
		},
		{
			name:      "unexpected error",
			c:         Case{Name: "c", SQL: "select distinct title from books", HTTP: "/books"},
			wantField: "error mismatch",
		},
		{
			name:      "wrong error kind",
			c:         Case{Name: "c", SQL: "select title, from books", Error: "unsupported"},
			wantField: "error mismatch",
		},
		{
			name:      "expected render error",
			c:         Case{Name: "c", SQL: "select * from books limit 5", JSError: "render"},
			wantField: "js mismatch",
		},
		{
			name:      "unexpected render error",
			c:         Case{Name: "c", SQL: "select * from books offset 5"},
			wantField: "js_error mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Run(context.Background(), &Suite{Name: "fail", Cases: []Case{tt.c}})

			assert.False(t, result.Pass)
			failed := result.Failed()
			require.Len(t, failed, 1)
			require.NotEmpty(t, failed[0].Errors)
			assert.Contains(t, failed[0].Errors[0], tt.wantField)
		})
	}
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	suite := &Suite{
		Name: "mixed",
		Cases: []Case{
			{Name: "bad", SQL: "select * from books", HTTP: "/authors"},
			{Name: "good", SQL: "select * from books", HTTP: "/books"},
		},
	}

	result := Run(context.Background(), suite)

	assert.False(t, result.Pass)
	require.Len(t, result.Cases, 2)
	assert.False(t, result.Cases[0].Pass)
	assert.True(t, result.Cases[1].Pass)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Run(ctx, &Suite{Name: "s", Cases: []Case{{Name: "c", SQL: "select * from books"}}})

	assert.False(t, result.Pass)
	assert.Equal(t, "other", result.Cases[0].Error)
}

func TestHarness_Options(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := New(WithLogger(logger), WithJSOptions(renderjs.WithClient("db")))
	result := h.Run(context.Background(), &Suite{
		Name:  "opts",
		Cases: []Case{{Name: "star", SQL: "select * from books"}},
	})

	require.True(t, result.Pass)
	assert.Equal(t, "const { data, error } = await db\n  .from('books')\n  .select()", result.Cases[0].JS)
	assert.Contains(t, buf.String(), "case finished")
}

func TestUpdate(t *testing.T) {
	suite := &Suite{
		Name: "update",
		Cases: []Case{
			{Name: "stale", SQL: "select * from books where title = 'Cheese'", HTTP: "/books"},
			{Name: "error", SQL: "select distinct title from books"},
			{Name: "render", SQL: "select * from books offset 10"},
		},
	}

	result := Run(context.Background(), suite)
	require.False(t, result.Pass)

	assert.True(t, Update(suite, result))
	assert.Equal(t, Case{
		Name: "stale",
		SQL:  "select * from books where title = 'Cheese'",
		HTTP: "/books?title=eq.Cheese",
		JS:   equalJS,
	}, suite.Cases[0])
	assert.Equal(t, "unsupported", suite.Cases[1].Error)
	assert.Equal(t, "/books?offset=10", suite.Cases[2].HTTP)
	assert.Equal(t, "render", suite.Cases[2].JSError)

	rerun := Run(context.Background(), suite)
	assert.True(t, rerun.Pass, "failed: %v", rerun.Failed())
	assert.False(t, Update(suite, rerun))
}

func TestRun_RepositoryCases(t *testing.T) {
	suites, err := LoadSuites("../../testdata/cases")
	require.NoError(t, err)

	for _, suite := range suites {
		t.Run(suite.Name, func(t *testing.T) {
			result := Run(context.Background(), suite)
			for _, c := range result.Failed() {
				t.Errorf("%s: %v", c.Name, c.Errors)
			}
		})
	}
}

func TestAssertionError(t *testing.T) {
	single := &AssertionError{Field: "http", Expected: "/a", Actual: "/b"}
	assert.Equal(t, "http mismatch\n  Expected: /a\n  Actual: /b", single.Error())

	multi := &AssertionError{Field: "js", Expected: "a\nb", Actual: "c"}
	assert.Equal(t, "js mismatch\n  Expected:\n    a\n    b\n  Actual:\n    c", multi.Error())
}
