package pgparse

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// internalTypeNames maps the catalog spelling of builtin types back to the
// name a user would write.
var internalTypeNames = map[string]string{
	"bool":   "boolean",
	"float4": "real",
	"float8": "float",
	"int2":   "smallint",
	"int4":   "int",
	"int8":   "bigint",
	"bpchar": "char",
}

// Strings returns the string values of nodes, in order. Non-string nodes
// such as A_Star are returned as "*".
func Strings(nodes []*pg_query.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		switch {
		case n.GetString_() != nil:
			out = append(out, n.GetString_().Sval)
		case n.GetAStar() != nil:
			out = append(out, "*")
		}
	}
	return out
}

// OperatorName returns the operator symbol of an A_Expr name list.
// Schema-qualified operators keep only the final component.
func OperatorName(nodes []*pg_query.Node) string {
	names := Strings(nodes)
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}

// TypeName renders a type name the way it would be written in a cast:
// the pg_catalog schema is dropped and builtin aliases are restored.
func TypeName(tn *pg_query.TypeName) string {
	if tn == nil {
		return ""
	}
	names := Strings(tn.Names)
	if len(names) > 1 && names[0] == "pg_catalog" {
		names = names[1:]
	}
	if len(names) == 1 {
		if alias, ok := internalTypeNames[names[0]]; ok {
			names[0] = alias
		}
	}
	name := strings.Join(names, ".")
	for range tn.ArrayBounds {
		name += "[]"
	}
	return name
}

// Kind returns the short node kind of n, e.g. "ColumnRef" or "SubLink".
func Kind(n *pg_query.Node) string {
	if n == nil || n.Node == nil {
		return "empty node"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", n.Node), "*pg_query.Node_")
}
