package processor

import (
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/pgparse"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

const hintQuoteValue = "Did you forget to wrap your value in single quotes?"

type operatorKey struct {
	kind   pg_query.A_Expr_Kind
	symbol string
}

type operatorMapping struct {
	op     ir.Operator
	negate bool
}

// operators maps (expression kind, symbol) to a filter operator. Negated
// symbols such as !~~ map onto the positive operator with negate set.
var operators = map[operatorKey]operatorMapping{
	{pg_query.A_Expr_Kind_AEXPR_OP, "="}:       {ir.OpEq, false},
	{pg_query.A_Expr_Kind_AEXPR_OP, "<>"}:      {ir.OpNeq, false},
	{pg_query.A_Expr_Kind_AEXPR_OP, ">"}:       {ir.OpGt, false},
	{pg_query.A_Expr_Kind_AEXPR_OP, ">="}:      {ir.OpGte, false},
	{pg_query.A_Expr_Kind_AEXPR_OP, "<"}:       {ir.OpLt, false},
	{pg_query.A_Expr_Kind_AEXPR_OP, "<="}:      {ir.OpLte, false},
	{pg_query.A_Expr_Kind_AEXPR_OP, "~"}:       {ir.OpMatch, false},
	{pg_query.A_Expr_Kind_AEXPR_OP, "~*"}:      {ir.OpIMatch, false},
	{pg_query.A_Expr_Kind_AEXPR_OP, "!~"}:      {ir.OpMatch, true},
	{pg_query.A_Expr_Kind_AEXPR_OP, "!~*"}:     {ir.OpIMatch, true},
	{pg_query.A_Expr_Kind_AEXPR_LIKE, "~~"}:    {ir.OpLike, false},
	{pg_query.A_Expr_Kind_AEXPR_LIKE, "!~~"}:   {ir.OpLike, true},
	{pg_query.A_Expr_Kind_AEXPR_ILIKE, "~~*"}:  {ir.OpILike, false},
	{pg_query.A_Expr_Kind_AEXPR_ILIKE, "!~~*"}: {ir.OpILike, true},
	{pg_query.A_Expr_Kind_AEXPR_IN, "="}:       {ir.OpIn, false},
	{pg_query.A_Expr_Kind_AEXPR_IN, "<>"}:      {ir.OpIn, true},
}

// processWhereClause converts the WHERE tree into a Filter. A nil clause
// yields a nil filter.
func processWhereClause(node *pg_query.Node, rel *relations) (ir.Filter, error) {
	if node == nil {
		return nil, nil
	}
	return processFilter(node, rel)
}

func processFilter(node *pg_query.Node, rel *relations) (ir.Filter, error) {
	switch n := node.GetNode().(type) {
	case *pg_query.Node_AExpr:
		return processComparison(n.AExpr, rel)
	case *pg_query.Node_NullTest:
		column, err := filterColumn(n.NullTest.Arg, rel)
		if err != nil {
			return nil, err
		}
		return &ir.ColumnFilter{
			Column:   column,
			Operator: ir.OpIs,
			Value:    ir.Null{},
			Negate:   n.NullTest.Nulltesttype == pg_query.NullTestType_IS_NOT_NULL,
		}, nil
	case *pg_query.Node_BoolExpr:
		return processBoolExpr(n.BoolExpr, rel)
	case *pg_query.Node_SubLink:
		return nil, sqlerr.Unsupported("Subqueries are not supported in the WHERE clause")
	default:
		return nil, sqlerr.Unsupported("Unsupported WHERE clause expression: %s", pgparse.Kind(node))
	}
}

func processBoolExpr(expr *pg_query.BoolExpr, rel *relations) (ir.Filter, error) {
	switch expr.Boolop {
	case pg_query.BoolExprType_AND_EXPR, pg_query.BoolExprType_OR_EXPR:
		values := make([]ir.Filter, 0, len(expr.Args))
		for _, arg := range expr.Args {
			f, err := processFilter(arg, rel)
			if err != nil {
				return nil, err
			}
			values = append(values, f)
		}
		op := ir.LogicalAnd
		if expr.Boolop == pg_query.BoolExprType_OR_EXPR {
			op = ir.LogicalOr
		}
		return &ir.LogicalFilter{Operator: op, Values: values}, nil
	case pg_query.BoolExprType_NOT_EXPR:
		if len(expr.Args) != 1 {
			return nil, sqlerr.Unsupported("NOT expressions must have exactly one argument")
		}
		f, err := processFilter(expr.Args[0], rel)
		if err != nil {
			return nil, err
		}
		return negate(f), nil
	default:
		return nil, sqlerr.Unsupported("Unsupported boolean operator: %s", expr.Boolop.String())
	}
}

// negate folds a NOT into f.
func negate(f ir.Filter) ir.Filter {
	switch filter := f.(type) {
	case *ir.ColumnFilter:
		filter.Negate = !filter.Negate
	case *ir.LogicalFilter:
		filter.Negate = !filter.Negate
	}
	return f
}

func processComparison(expr *pg_query.A_Expr, rel *relations) (ir.Filter, error) {
	symbol := pgparse.OperatorName(expr.Name)
	mapping, ok := operators[operatorKey{expr.Kind, symbol}]
	if !ok {
		return nil, unsupportedOperator(expr, symbol)
	}

	column, err := filterColumn(expr.Lexpr, rel)
	if err != nil {
		return nil, err
	}

	var value ir.Value
	if mapping.op == ir.OpIn {
		value, err = listValue(expr.Rexpr)
	} else {
		value, err = scalarValue(expr.Rexpr)
	}
	if err != nil {
		return nil, err
	}

	return &ir.ColumnFilter{
		Column:   column,
		Operator: mapping.op,
		Value:    value,
		Negate:   mapping.negate,
	}, nil
}

func unsupportedOperator(expr *pg_query.A_Expr, symbol string) error {
	switch expr.Kind {
	case pg_query.A_Expr_Kind_AEXPR_BETWEEN, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN,
		pg_query.A_Expr_Kind_AEXPR_BETWEEN_SYM, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN_SYM:
		return sqlerr.UnsupportedWithHint("Use two comparisons joined with AND", "BETWEEN is not supported")
	case pg_query.A_Expr_Kind_AEXPR_OP_ANY, pg_query.A_Expr_Kind_AEXPR_OP_ALL:
		return sqlerr.UnsupportedWithHint("Use IN with a list of values", "ANY and ALL are not supported")
	case pg_query.A_Expr_Kind_AEXPR_SIMILAR:
		return sqlerr.UnsupportedWithHint("Use ~ for regular expression matching", "SIMILAR TO is not supported")
	case pg_query.A_Expr_Kind_AEXPR_DISTINCT, pg_query.A_Expr_Kind_AEXPR_NOT_DISTINCT:
		return sqlerr.Unsupported("IS DISTINCT FROM is not supported")
	}
	return sqlerr.Unsupported("Unsupported operator '%s'", symbol)
}

// filterColumn resolves the left side of a comparison to the column name
// used in a request. Columns of joined relations are prefixed with the
// embedding path, e.g. "authors.name".
func filterColumn(node *pg_query.Node, rel *relations) (string, error) {
	qt, err := processQueryTarget(node, scopeWhere)
	if err != nil {
		return "", err
	}
	if qt.cast != "" && !qt.json {
		return "", sqlerr.Unsupported("Casts are not supported on columns in the WHERE clause")
	}
	if qt.column == "*" {
		return "", sqlerr.Unsupported("Filters must compare a column, found '*'")
	}

	column := qt.column
	if qt.cast != "" {
		column += "::" + qt.cast
	}

	switch {
	case qt.relation == "" || rel.isPrimary(qt.relation):
		return column, nil
	case rel.byName[qt.relation] != nil:
		return rel.path(rel.byName[qt.relation]) + "." + column, nil
	default:
		return "", sqlerr.UnsupportedWithHint(hintMissingJoin,
			"Found foreign column '%s' in WHERE clause without a join to that relation", qt.qualified())
	}
}

// scalarValue converts a constant operand.
func scalarValue(node *pg_query.Node) (ir.Value, error) {
	c := node.GetAConst()
	if c == nil {
		if node.GetColumnRef() != nil {
			return nil, sqlerr.UnsupportedWithHint(hintQuoteValue,
				"Filter values must be constants, found column '%s'", strings.Join(pgparse.Strings(node.GetColumnRef().Fields), "."))
		}
		return nil, sqlerr.Unsupported("Filter values must be string or number constants, found %s", pgparse.Kind(node))
	}

	switch {
	case c.Isnull:
		return nil, sqlerr.UnsupportedWithHint("Use IS NULL or IS NOT NULL", "Comparisons with NULL are not supported")
	case c.GetSval() != nil:
		return ir.String(c.GetSval().Sval), nil
	case c.GetIval() != nil:
		return ir.Int(c.GetIval().Ival), nil
	case c.GetFval() != nil:
		return numericValue(c.GetFval().Fval)
	default:
		return nil, sqlerr.Unsupported("Filter values must be string or number constants")
	}
}

// numericValue converts a numeric literal the parser did not fit in an
// int32. Integers that fit in an int64 stay integers; anything else keeps
// its digits as written.
func numericValue(text string) (ir.Value, error) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ir.Int(n), nil
	}
	n := ir.Numeric(numericText(text))
	if !n.Valid() {
		return nil, sqlerr.Unsupported("Numeric value '%s' is not a decimal literal", text)
	}
	return n, nil
}

// numericText spells a PostgreSQL decimal literal as a JSON number:
// ".5" becomes "0.5", "5." becomes "5.0" and leading zeros are dropped.
func numericText(text string) string {
	sign := ""
	if strings.HasPrefix(text, "-") {
		sign, text = "-", text[1:]
	}
	mantissa, exp := text, ""
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		mantissa, exp = text[:i], text[i:]
	}
	whole, frac, dotted := strings.Cut(mantissa, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	if dotted {
		if frac == "" {
			frac = "0"
		}
		whole += "." + frac
	}
	return sign + whole + exp
}

func listValue(node *pg_query.Node) (ir.Value, error) {
	list := node.GetList()
	if list == nil {
		return nil, sqlerr.Unsupported("IN requires a list of constants, found %s", pgparse.Kind(node))
	}
	values := make(ir.List, 0, len(list.Items))
	for _, item := range list.Items {
		v, err := scalarValue(item)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
