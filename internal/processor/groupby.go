package processor

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/pgparse"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

// groupKey identifies a column by its owning relation. owner is "" for
// the primary relation.
type groupKey struct {
	owner  string
	column string
}

// validateGroupBy checks GROUP BY against the target list. PostgREST
// groups implicitly by every non-aggregate column it selects, so the
// explicit GROUP BY must name exactly those columns.
func validateGroupBy(groupClause []*pg_query.Node, placed []placedTarget, rel *relations) error {
	selected := map[groupKey]bool{}
	hasAggregate := false
	for _, p := range placed {
		switch t := p.target.(type) {
		case *ir.ColumnTarget:
			selected[groupKey{p.owner, t.Column}] = true
		case *ir.AggregateTarget:
			hasAggregate = true
		}
	}

	grouped := map[groupKey]bool{}
	for _, node := range groupClause {
		key, err := groupColumn(node, rel)
		if err != nil {
			return err
		}
		if !selected[key] {
			return sqlerr.Unsupported("Every column in the GROUP BY clause must also be in the target list, missing '%s'", displayKey(key))
		}
		grouped[key] = true
	}

	if len(groupClause) > 0 && !hasAggregate {
		return sqlerr.Unsupported("A GROUP BY clause requires at least one aggregate function in the target list")
	}
	if !hasAggregate {
		return nil
	}

	for _, p := range placed {
		col, ok := p.target.(*ir.ColumnTarget)
		if !ok {
			continue
		}
		key := groupKey{p.owner, col.Column}
		if !grouped[key] {
			return sqlerr.Unsupported("Column '%s' must appear in the GROUP BY clause or be used in an aggregate function", displayKey(key))
		}
	}
	return nil
}

func groupColumn(node *pg_query.Node, rel *relations) (groupKey, error) {
	ref := node.GetColumnRef()
	if ref == nil {
		return groupKey{}, sqlerr.Unsupported("Only columns are supported in the GROUP BY clause, found %s", pgparse.Kind(node))
	}
	qt, err := processColumnRef(ref)
	if err != nil {
		return groupKey{}, err
	}

	switch {
	case qt.relation == "" || rel.isPrimary(qt.relation):
		return groupKey{column: qt.column}, nil
	case rel.byName[qt.relation] != nil:
		return groupKey{owner: qt.relation, column: qt.column}, nil
	default:
		return groupKey{}, sqlerr.UnsupportedWithHint(hintMissingJoin,
			"Found foreign column '%s' in GROUP BY clause without a join to that relation", qt.qualified())
	}
}

func displayKey(k groupKey) string {
	if k.owner == "" {
		return k.column
	}
	return k.owner + "." + k.column
}
