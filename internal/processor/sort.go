package processor

import (
	"strconv"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/pgparse"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

func processSortClause(list []*pg_query.Node, rel *relations) ([]ir.Sort, error) {
	if len(list) == 0 {
		return nil, nil
	}

	sorts := make([]ir.Sort, 0, len(list))
	for _, node := range list {
		sb := node.GetSortBy()
		if sb == nil {
			return nil, sqlerr.Unsupported("Unsupported ORDER BY item: %s", pgparse.Kind(node))
		}
		s, err := processSortBy(sb, rel)
		if err != nil {
			return nil, err
		}
		sorts = append(sorts, s)
	}
	return sorts, nil
}

func processSortBy(sb *pg_query.SortBy, rel *relations) (ir.Sort, error) {
	var s ir.Sort

	if len(sb.UseOp) > 0 {
		return s, sqlerr.Unsupported("ORDER BY ... USING is not supported")
	}

	qt, err := processQueryTarget(sb.Node, scopeOrder)
	if err != nil {
		return s, err
	}
	if qt.cast != "" {
		return s, sqlerr.Unsupported("Casts are not supported in the ORDER BY clause")
	}
	if qt.column == "*" {
		return s, sqlerr.Unsupported("ORDER BY requires a column, found '*'")
	}
	switch {
	case qt.relation == "" || rel.isPrimary(qt.relation):
	case rel.byName[qt.relation] != nil:
		return s, sqlerr.Unsupported("Ordering by a column of joined relation '%s' is not supported", qt.relation)
	default:
		return s, sqlerr.UnsupportedWithHint(hintMissingJoin,
			"Found foreign column '%s' in ORDER BY clause without a join to that relation", qt.qualified())
	}
	s.Column = qt.column

	switch sb.SortbyDir {
	case pg_query.SortByDir_SORTBY_ASC:
		s.Direction = ir.SortAsc
	case pg_query.SortByDir_SORTBY_DESC:
		s.Direction = ir.SortDesc
	}

	switch sb.SortbyNulls {
	case pg_query.SortByNulls_SORTBY_NULLS_FIRST:
		s.Nulls = ir.NullsFirst
	case pg_query.SortByNulls_SORTBY_NULLS_LAST:
		s.Nulls = ir.NullsLast
	}

	return s, nil
}

// processLimit reads LIMIT and OFFSET. LIMIT ALL and LIMIT NULL mean no
// limit.
func processLimit(stmt *pg_query.SelectStmt) (*ir.Limit, error) {
	if stmt.LimitOption == pg_query.LimitOption_LIMIT_OPTION_WITH_TIES {
		return nil, sqlerr.Unsupported("FETCH ... WITH TIES is not supported")
	}

	count, err := limitValue(stmt.LimitCount, "LIMIT")
	if err != nil {
		return nil, err
	}
	offset, err := limitValue(stmt.LimitOffset, "OFFSET")
	if err != nil {
		return nil, err
	}
	if count == nil && offset == nil {
		return nil, nil
	}
	return &ir.Limit{Count: count, Offset: offset}, nil
}

func limitValue(node *pg_query.Node, clause string) (*int64, error) {
	if node == nil {
		return nil, nil
	}
	c := node.GetAConst()
	if c == nil {
		return nil, sqlerr.Unsupported("%s must be an integer constant, found %s", clause, pgparse.Kind(node))
	}
	if c.Isnull {
		return nil, nil
	}

	var n int64
	switch {
	case c.GetIval() != nil:
		n = int64(c.GetIval().Ival)
	case c.GetFval() != nil:
		parsed, err := strconv.ParseInt(c.GetFval().Fval, 10, 64)
		if err != nil {
			return nil, sqlerr.Unsupported("%s must be an integer constant, found '%s'", clause, c.GetFval().Fval)
		}
		n = parsed
	default:
		return nil, sqlerr.Unsupported("%s must be an integer constant", clause)
	}
	if n < 0 {
		return nil, sqlerr.Unsupported("%s must not be negative", clause)
	}
	return &n, nil
}
