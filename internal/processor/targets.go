package processor

import (
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/pgparse"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

// scope is the clause a target expression appears in. It decides which
// expression kinds are allowed and how rejections are worded.
type scope int

const (
	scopeSelect scope = iota
	scopeWhere
	scopeOrder
	scopeAggregateArg
)

func (s scope) unsupported(node *pg_query.Node) error {
	switch s {
	case scopeWhere:
		return sqlerr.Unsupported("Only columns and JSON fields are supported on the left side of a filter, found %s", pgparse.Kind(node))
	case scopeOrder:
		return sqlerr.Unsupported("Only columns and JSON fields are supported in the ORDER BY clause, found %s", pgparse.Kind(node))
	case scopeAggregateArg:
		return sqlerr.Unsupported("Only columns and JSON fields are supported as aggregate arguments, found %s", pgparse.Kind(node))
	default:
		return sqlerr.Unsupported("Only columns, JSON fields and aggregates are supported as query targets, found %s", pgparse.Kind(node))
	}
}

// queryTarget is a resolved target expression: a column or JSON path,
// optionally cast, optionally aggregated.
type queryTarget struct {
	relation string // qualifier as written; empty when unqualified
	column   string // column name, "*", or JSON path such as "data->tags->>0"
	cast     string
	json     bool

	aggregate *aggregateCall
}

type aggregateCall struct {
	function   ir.AggregateFunction
	inputCast  string
	outputCast string
}

// qualified returns the column as written, e.g. "authors.name".
func (t *queryTarget) qualified() string {
	if t.relation == "" {
		return t.column
	}
	return t.relation + "." + t.column
}

// processQueryTarget is the single entry point for target expressions in
// every clause. Casts, JSON paths and aggregate arguments recurse back
// into it.
func processQueryTarget(node *pg_query.Node, s scope) (*queryTarget, error) {
	switch n := node.GetNode().(type) {
	case *pg_query.Node_ColumnRef:
		return processColumnRef(n.ColumnRef)
	case *pg_query.Node_AExpr:
		if isJSONArrow(n.AExpr) {
			return processJSONPath(n.AExpr, s)
		}
		return nil, s.unsupported(node)
	case *pg_query.Node_TypeCast:
		return processCast(n.TypeCast, s)
	case *pg_query.Node_FuncCall:
		if s != scopeSelect {
			return nil, sqlerr.Unsupported("Aggregate functions are only supported in the target list")
		}
		return processAggregate(n.FuncCall)
	default:
		return nil, s.unsupported(node)
	}
}

func processColumnRef(ref *pg_query.ColumnRef) (*queryTarget, error) {
	fields := pgparse.Strings(ref.Fields)
	if len(fields) == 0 {
		return nil, sqlerr.Unsupported("Empty column reference")
	}
	column := fields[len(fields)-1]
	if len(fields) == 1 {
		return &queryTarget{column: column}, nil
	}
	// schema.relation.column keeps only relation and column
	return &queryTarget{relation: fields[len(fields)-2], column: column}, nil
}

func isJSONArrow(expr *pg_query.A_Expr) bool {
	if expr.Kind != pg_query.A_Expr_Kind_AEXPR_OP {
		return false
	}
	op := pgparse.OperatorName(expr.Name)
	return op == "->" || op == "->>"
}

// processJSONPath resolves col->'a'->>'b' into the column "col->a->>b".
// Keys may be strings or integer array indexes.
func processJSONPath(expr *pg_query.A_Expr, s scope) (*queryTarget, error) {
	base, err := processQueryTarget(expr.Lexpr, scopeForJSON(s))
	if err != nil {
		return nil, err
	}
	if base.aggregate != nil {
		return nil, sqlerr.Unsupported("JSON fields of aggregate results are not supported")
	}
	if base.cast != "" {
		return nil, sqlerr.Unsupported("Casts inside JSON paths are not supported")
	}
	if base.column == "*" {
		return nil, sqlerr.Unsupported("JSON paths must start from a column")
	}

	key, err := jsonKey(expr.Rexpr)
	if err != nil {
		return nil, err
	}

	base.column = base.column + pgparse.OperatorName(expr.Name) + key
	base.json = true
	return base, nil
}

// scopeForJSON keeps the clause for error wording but never allows
// aggregates inside a path.
func scopeForJSON(s scope) scope {
	if s == scopeSelect {
		return scopeAggregateArg
	}
	return s
}

func jsonKey(node *pg_query.Node) (string, error) {
	c := node.GetAConst()
	switch {
	case c != nil && c.GetSval() != nil:
		return c.GetSval().Sval, nil
	case c != nil && c.GetIval() != nil:
		return strconv.FormatInt(int64(c.GetIval().Ival), 10), nil
	default:
		return "", sqlerr.Unsupported("JSON path keys must be string or integer constants, found %s", pgparse.Kind(node))
	}
}

func processCast(tc *pg_query.TypeCast, s scope) (*queryTarget, error) {
	inner, err := processQueryTarget(tc.Arg, s)
	if err != nil {
		return nil, err
	}
	typeName := pgparse.TypeName(tc.TypeName)

	if inner.aggregate != nil {
		if inner.aggregate.outputCast != "" {
			return nil, sqlerr.Unsupported("Only one cast per aggregate result is supported")
		}
		inner.aggregate.outputCast = typeName
		return inner, nil
	}
	if inner.cast != "" {
		return nil, sqlerr.Unsupported("Only one cast per column is supported")
	}
	inner.cast = typeName
	return inner, nil
}

func processAggregate(fc *pg_query.FuncCall) (*queryTarget, error) {
	names := pgparse.Strings(fc.Funcname)
	name := strings.ToLower(names[len(names)-1])

	if !ir.ValidAggregate(name) {
		return nil, sqlerr.UnsupportedWithHint(
			"Only the aggregate functions avg, count, max, min and sum are supported",
			"Unsupported function '%s'", name)
	}
	switch {
	case fc.Over != nil:
		return nil, sqlerr.Unsupported("Window functions are not supported")
	case fc.AggDistinct:
		return nil, sqlerr.Unsupported("DISTINCT inside aggregate functions is not supported")
	case fc.AggFilter != nil:
		return nil, sqlerr.Unsupported("FILTER clauses on aggregate functions are not supported")
	case len(fc.AggOrder) > 0 || fc.AggWithinGroup:
		return nil, sqlerr.Unsupported("Ordered aggregate functions are not supported")
	case len(fc.Args) > 1:
		return nil, sqlerr.Unsupported("Aggregate functions with more than one argument are not supported")
	}

	fn := ir.AggregateFunction(name)
	if fc.AggStar || len(fc.Args) == 0 {
		if fn != ir.AggregateCount {
			return nil, sqlerr.Unsupported("%s() requires a column argument", name)
		}
		return &queryTarget{aggregate: &aggregateCall{function: fn}}, nil
	}

	arg, err := processQueryTarget(fc.Args[0], scopeAggregateArg)
	if err != nil {
		return nil, err
	}
	if arg.column == "*" {
		return nil, sqlerr.Unsupported("%s() requires a column argument", name)
	}

	return &queryTarget{
		relation: arg.relation,
		column:   arg.column,
		json:     arg.json,
		aggregate: &aggregateCall{
			function:  fn,
			inputCast: arg.cast,
		},
	}, nil
}

// placedTarget records which relation owns a target, for GROUP BY checks.
type placedTarget struct {
	owner  string // "" for the primary relation, else the embedded name
	target ir.Target
}

// processTargetList resolves the select list, moves columns of joined
// relations into their embedded targets, and nests the embedded targets
// to mirror the join tree.
func processTargetList(list []*pg_query.Node, rel *relations) ([]ir.Target, []placedTarget, error) {
	var (
		targets []ir.Target
		placed  []placedTarget
	)

	for _, node := range list {
		rt := node.GetResTarget()
		if rt == nil || rt.Val == nil {
			return nil, nil, sqlerr.Unsupported("Unsupported target list item: %s", pgparse.Kind(node))
		}

		qt, err := processQueryTarget(rt.Val, scopeSelect)
		if err != nil {
			return nil, nil, err
		}

		target := buildTarget(qt, rt.Name)

		switch {
		case qt.relation == "" || rel.isPrimary(qt.relation):
			targets = append(targets, target)
			placed = append(placed, placedTarget{target: target})
		case rel.byName[qt.relation] != nil:
			e := rel.byName[qt.relation]
			e.Targets = append(e.Targets, target)
			placed = append(placed, placedTarget{owner: e.Name(), target: target})
		default:
			return nil, nil, sqlerr.UnsupportedWithHint(hintMissingJoin,
				"Found foreign column '%s' in target list without a join to that relation", qt.qualified())
		}
	}

	// Nest embedded targets under their parents in join order. Parents are
	// always joined before their children, so a parent is complete by the
	// time it is referenced.
	for _, e := range rel.embedded {
		parent := e.JoinedColumns.Left.Relation
		if rel.isPrimary(parent) {
			targets = append(targets, e)
			continue
		}
		owner := rel.byName[parent]
		if owner == nil {
			return nil, nil, sqlerr.Unsupported("Something went wrong, could not find parent embedded target '%s' for '%s'", parent, e.Name())
		}
		owner.Targets = append(owner.Targets, e)
	}

	return targets, placed, nil
}

func buildTarget(qt *queryTarget, alias string) ir.Target {
	if qt.aggregate != nil {
		return &ir.AggregateTarget{
			FunctionName: qt.aggregate.function,
			Column:       qt.column,
			InputCast:    qt.aggregate.inputCast,
			OutputCast:   qt.aggregate.outputCast,
			Alias:        alias,
		}
	}
	if alias == qt.column {
		alias = ""
	}
	return &ir.ColumnTarget{Column: qt.column, Alias: alias, Cast: qt.cast}
}
