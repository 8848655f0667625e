package renderhttp

import (
	"strings"

	"github.com/roach88/sql2rest/internal/ir"
)

// appendFilter renders a filter at the root of the request. A non-negated
// AND is flattened into its children; everything else becomes a single
// parameter.
func appendFilter(params []Param, f ir.Filter) []Param {
	switch filter := f.(type) {
	case *ir.ColumnFilter:
		return append(params, Param{
			Key:   filter.Column,
			Value: negation(filter.Negate) + string(filter.Operator) + "." + renderValue(filter.Operator, filter.Value, false),
		})
	case *ir.LogicalFilter:
		if filter.Operator == ir.LogicalAnd && !filter.Negate {
			for _, child := range filter.Values {
				params = appendFilter(params, child)
			}
			return params
		}
		return append(params, Param{
			Key:   negation(filter.Negate) + string(filter.Operator),
			Value: "(" + renderChildren(filter.Values) + ")",
		})
	default:
		return params
	}
}

// renderNested renders a filter inside a logical group, where every
// operator is written in full: "title.eq.Cheese", "not.or(a,b)".
func renderNested(f ir.Filter) string {
	switch filter := f.(type) {
	case *ir.ColumnFilter:
		return filter.Column + "." + negation(filter.Negate) + string(filter.Operator) + "." + renderValue(filter.Operator, filter.Value, true)
	case *ir.LogicalFilter:
		return negation(filter.Negate) + string(filter.Operator) + "(" + renderChildren(filter.Values) + ")"
	default:
		return ""
	}
}

func renderChildren(children []ir.Filter) string {
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = renderNested(child)
	}
	return strings.Join(parts, ",")
}

func negation(negate bool) string {
	if negate {
		return "not."
	}
	return ""
}

// renderValue formats a filter operand. Pattern wildcards become "*".
// Inside a logical group or a list, values that would break PostgREST's
// grouping syntax are double-quoted.
func renderValue(op ir.Operator, v ir.Value, nested bool) string {
	if list, ok := v.(ir.List); ok {
		items := make([]string, len(list))
		for i, item := range list {
			items[i] = QuoteValue(ir.Literal(item))
		}
		return "(" + strings.Join(items, ",") + ")"
	}

	s := ir.Literal(v)
	if op == ir.OpLike || op == ir.OpILike {
		s = strings.ReplaceAll(s, "%", "*")
	}
	if nested {
		return QuoteValue(s)
	}
	return s
}

// QuoteValue wraps s in double quotes when it contains characters
// reserved by PostgREST's list and group syntax. Backslashes and double
// quotes inside are escaped.
func QuoteValue(s string) string {
	if s == "" || strings.ContainsAny(s, `,()":`) || strings.TrimSpace(s) != s {
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
	}
	return s
}
