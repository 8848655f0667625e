package renderjs

import (
	"strings"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/renderhttp"
)

// appendFilter adds the calls for a root filter. A non-negated AND becomes
// one call per child. Any other logical filter goes through .or(), the
// only call that takes raw PostgREST logic; negation is written into its
// text.
func appendFilter(calls []call, f ir.Filter) []call {
	switch filter := f.(type) {
	case *ir.ColumnFilter:
		return append(calls, columnCall(filter))
	case *ir.LogicalFilter:
		switch {
		case filter.Operator == ir.LogicalAnd && !filter.Negate:
			for _, child := range filter.Values {
				calls = appendFilter(calls, child)
			}
			return calls
		case filter.Negate:
			return append(calls, call{name: "or", args: []string{quote(nested(filter))}})
		default:
			return append(calls, call{name: "or", args: []string{quote(nestedChildren(filter.Values))}})
		}
	default:
		return calls
	}
}

func columnCall(f *ir.ColumnFilter) call {
	column := quote(f.Column)
	if !f.Negate {
		return call{name: string(f.Operator), args: []string{column, value(f.Value)}}
	}

	operand := value(f.Value)
	if list, ok := f.Value.(ir.List); ok {
		// .not() passes the operand through untouched, so lists use
		// PostgREST's own syntax.
		operand = quote(postgrestList(list))
	}
	return call{name: "not", args: []string{column, quote(string(f.Operator)), operand}}
}

// value renders a filter operand as a JavaScript literal.
func value(v ir.Value) string {
	switch val := v.(type) {
	case ir.String:
		return quote(string(val))
	case ir.List:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = value(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return ir.Literal(v)
	}
}

func postgrestList(list ir.List) string {
	items := make([]string, len(list))
	for i, item := range list {
		items[i] = renderhttp.QuoteValue(ir.Literal(item))
	}
	return "(" + strings.Join(items, ",") + ")"
}

// nested renders a filter as PostgREST logic text, e.g.
// "not.and(title.eq.Cheese, description.ilike.%salsa%)".
func nested(f ir.Filter) string {
	neg := func(negate bool) string {
		if negate {
			return "not."
		}
		return ""
	}

	switch filter := f.(type) {
	case *ir.ColumnFilter:
		operand := renderhttp.QuoteValue(ir.Literal(filter.Value))
		if list, ok := filter.Value.(ir.List); ok {
			operand = postgrestList(list)
		}
		return filter.Column + "." + neg(filter.Negate) + string(filter.Operator) + "." + operand
	case *ir.LogicalFilter:
		return neg(filter.Negate) + string(filter.Operator) + "(" + nestedChildren(filter.Values) + ")"
	default:
		return ""
	}
}

func nestedChildren(children []ir.Filter) string {
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = nested(child)
	}
	return strings.Join(parts, ", ")
}
