// Package renderjs renders IR statements as supabase-js query builder
// chains:
//
//	const { data, error } = await supabase
//	  .from('books')
//	  .select('title, description')
//	  .eq('title', 'Cheese')
//
// Output has no trailing semicolon or newline.
package renderjs

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/renderhttp"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

const (
	// DefaultClient is the identifier the chain is called on.
	DefaultClient = "supabase"

	// DefaultPrintWidth is the column at which calls are broken across lines.
	DefaultPrintWidth = 40
)

// Query is rendered supabase-js source code.
type Query struct {
	Code string
}

type config struct {
	client     string
	printWidth int
}

// Option configures Render.
type Option func(*config)

// WithClient sets the client identifier. Empty names are ignored.
func WithClient(name string) Option {
	return func(c *config) {
		if name != "" {
			c.client = name
		}
	}
}

// WithPrintWidth sets the line width. Non-positive widths are ignored.
func WithPrintWidth(width int) Option {
	return func(c *config) {
		if width > 0 {
			c.printWidth = width
		}
	}
}

// Render converts a statement into a supabase-js call chain.
func Render(stmt ir.Statement, opts ...Option) (*Query, error) {
	cfg := config{client: DefaultClient, printWidth: DefaultPrintWidth}
	for _, opt := range opts {
		opt(&cfg)
	}

	if result := ir.Validate(stmt); !result.Valid {
		return nil, sqlerr.NewRenderError(sqlerr.RendererSupabaseJS, "invalid statement: %s", strings.Join(result.Problems, "; "))
	}

	sel, ok := stmt.(*ir.Select)
	if !ok {
		return nil, sqlerr.NewRenderError(sqlerr.RendererSupabaseJS, "unsupported statement type %T", stmt)
	}

	calls := []call{{name: "from", args: []string{quote(sel.From)}}}

	if isSelectStar(sel.Targets) {
		calls = append(calls, call{name: "select"})
	} else {
		calls = append(calls, call{name: "select", args: []string{quote(renderhttp.SelectList(sel.Targets, ", "))}})
	}

	if sel.Filter != nil {
		calls = appendFilter(calls, sel.Filter)
	}

	for _, s := range sel.Sorts {
		calls = append(calls, sortCall(s))
	}

	if sel.Limit != nil {
		limit, err := limitCall(sel.Limit)
		if err != nil {
			return nil, err
		}
		calls = append(calls, limit)
	}

	lines := []string{"const { data, error } = await " + cfg.client}
	for _, c := range calls {
		lines = append(lines, c.lines(cfg.printWidth)...)
	}
	return &Query{Code: strings.Join(lines, "\n")}, nil
}

func isSelectStar(targets []ir.Target) bool {
	if len(targets) != 1 {
		return false
	}
	col, ok := targets[0].(*ir.ColumnTarget)
	return ok && col.Column == "*" && col.Alias == "" && col.Cast == ""
}

func sortCall(s ir.Sort) call {
	c := call{name: "order", args: []string{quote(s.Column)}}
	switch s.Direction {
	case ir.SortAsc:
		c.options = append(c.options, "ascending: true")
	case ir.SortDesc:
		c.options = append(c.options, "ascending: false")
	}
	switch s.Nulls {
	case ir.NullsFirst:
		c.options = append(c.options, "nullsFirst: true")
	case ir.NullsLast:
		c.options = append(c.options, "nullsFirst: false")
	}
	return c
}

// limitCall maps LIMIT/OFFSET onto .limit or .range. The builder has no
// call for an offset on its own.
func limitCall(l *ir.Limit) (call, error) {
	switch {
	case l.Count != nil && l.Offset != nil:
		if *l.Count > math.MaxInt64-*l.Offset {
			return call{}, sqlerr.NewRenderError(sqlerr.RendererSupabaseJS, "The range end of LIMIT %d OFFSET %d does not fit in a 64-bit integer", *l.Count, *l.Offset)
		}
		from, to := *l.Offset, *l.Offset+*l.Count
		return call{name: "range", args: []string{
			strconv.FormatInt(from, 10),
			strconv.FormatInt(to, 10),
		}}, nil
	case l.Count != nil:
		return call{name: "limit", args: []string{strconv.FormatInt(*l.Count, 10)}}, nil
	default:
		return call{}, sqlerr.NewRenderError(sqlerr.RendererSupabaseJS, "An offset without a limit cannot be expressed, add a LIMIT clause")
	}
}
