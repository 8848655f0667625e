package processor

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/pgparse"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

const hintMissingJoin = "Did you forget to join that relation or alias it to something else?"

// relations is the resolved FROM clause: the primary relation plus every
// joined relation, indexed by the name other clauses use for it.
type relations struct {
	primary      string // relation name
	primaryAlias string

	// embedded holds joined relations in join order.
	embedded []*ir.EmbeddedTarget
	byName   map[string]*ir.EmbeddedTarget
}

// primaryName is the name clauses use to refer to the primary relation.
func (r *relations) primaryName() string {
	if r.primaryAlias != "" {
		return r.primaryAlias
	}
	return r.primary
}

func (r *relations) isPrimary(name string) bool {
	return name == r.primaryName()
}

// known reports whether name refers to the primary or an embedded relation.
func (r *relations) known(name string) bool {
	return r.isPrimary(name) || r.byName[name] != nil
}

func (r *relations) names() []string {
	out := make([]string, len(r.embedded))
	for i, e := range r.embedded {
		out[i] = e.Name()
	}
	return out
}

// path returns the dotted path from the primary relation to e, using
// relation names for flattened embeds, e.g. "authors.publishers".
func (r *relations) path(e *ir.EmbeddedTarget) string {
	var segments []string
	for cur := e; cur != nil; cur = r.byName[cur.JoinedColumns.Left.Relation] {
		segments = append(segments, embedSegment(cur))
		if r.isPrimary(cur.JoinedColumns.Left.Relation) {
			break
		}
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ".")
}

// embedSegment is the name a request uses for an embedded relation.
// Flattened embeds are spread without an alias, so they go by relation.
func embedSegment(e *ir.EmbeddedTarget) string {
	if e.Flatten {
		return e.Relation
	}
	return e.Name()
}

// processFromClause resolves the single FROM item into the primary
// relation and its join tree.
func processFromClause(node *pg_query.Node) (*relations, error) {
	rel := &relations{byName: map[string]*ir.EmbeddedTarget{}}
	if err := processFromItem(node, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// processFromItem handles one FROM item. Joins are left-deep: the left
// side is resolved first so the qualifier can refer to it.
func processFromItem(node *pg_query.Node, rel *relations) error {
	switch n := node.GetNode().(type) {
	case *pg_query.Node_RangeVar:
		name, alias, err := relationName(n.RangeVar)
		if err != nil {
			return err
		}
		rel.primary = name
		rel.primaryAlias = alias
		return nil
	case *pg_query.Node_JoinExpr:
		return processJoin(n.JoinExpr, rel)
	case *pg_query.Node_RangeSubselect:
		return sqlerr.Unsupported("Subqueries are not supported in the FROM clause")
	case *pg_query.Node_RangeFunction:
		return sqlerr.Unsupported("Functions are not supported in the FROM clause")
	default:
		return sqlerr.Unsupported("Unsupported FROM clause item: %s", pgparse.Kind(node))
	}
}

func relationName(rv *pg_query.RangeVar) (name, alias string, err error) {
	if rv.Schemaname != "" {
		return "", "", sqlerr.UnsupportedWithHint(
			"The schema is chosen by the request profile, not the path. Remove the schema qualifier.",
			"Schema-qualified relations are not supported: %s.%s", rv.Schemaname, rv.Relname)
	}
	if rv.Alias != nil {
		alias = rv.Alias.Aliasname
	}
	return rv.Relname, alias, nil
}

func joinType(j *pg_query.JoinExpr) (ir.JoinType, error) {
	switch j.Jointype {
	case pg_query.JoinType_JOIN_INNER:
		return ir.JoinInner, nil
	case pg_query.JoinType_JOIN_LEFT:
		return ir.JoinLeft, nil
	default:
		kind := strings.TrimPrefix(j.Jointype.String(), "JOIN_")
		return "", sqlerr.Unsupported("Only inner and left joins are supported, found %s join", strings.ToLower(kind))
	}
}

func processJoin(j *pg_query.JoinExpr, rel *relations) error {
	jt, err := joinType(j)
	if err != nil {
		return err
	}
	if j.IsNatural {
		return sqlerr.UnsupportedWithHint("Join on explicit columns with ON instead", "Natural joins are not supported")
	}
	if len(j.UsingClause) > 0 {
		return sqlerr.UnsupportedWithHint("Join on explicit columns with ON instead", "Joins with USING are not supported")
	}

	if err := processFromItem(j.Larg, rel); err != nil {
		return err
	}

	rv := j.Rarg.GetRangeVar()
	if rv == nil {
		if j.Rarg.GetRangeSubselect() != nil {
			return sqlerr.Unsupported("Subqueries are not supported in the FROM clause")
		}
		return sqlerr.Unsupported("Only named relations can be joined, found %s", pgparse.Kind(j.Rarg))
	}
	relname, alias, err := relationName(rv)
	if err != nil {
		return err
	}

	joined := &ir.EmbeddedTarget{
		Relation: relname,
		Alias:    alias,
		JoinType: jt,
		Targets:  []ir.Target{},
		Flatten:  true,
	}
	name := joined.Name()
	if rel.known(name) {
		return sqlerr.UnsupportedWithHint(
			"Alias one of the relations to a unique name",
			"Relation '%s' appears more than once in the FROM clause", name)
	}

	if j.Quals == nil {
		return sqlerr.Unsupported("Joins must have an ON qualifier comparing two columns")
	}
	cols, err := processJoinQualifier(j.Quals, rel, name)
	if err != nil {
		return err
	}
	joined.JoinedColumns = cols

	// Flattened embeds go by relation name, so a relation can be spread
	// into the same parent only once.
	for _, e := range rel.embedded {
		if e.Relation == relname && e.JoinedColumns.Left.Relation == cols.Left.Relation {
			return sqlerr.UnsupportedWithHint(
				"Join the relation once, or query the second role in a separate request",
				"Relation '%s' is joined more than once to '%s'", relname, cols.Left.Relation)
		}
	}

	rel.embedded = append(rel.embedded, joined)
	rel.byName[name] = joined
	return nil
}

// processJoinQualifier validates "a.x = b.y" and orders it so Left is the
// parent side and Right the newly joined relation.
func processJoinQualifier(quals *pg_query.Node, rel *relations, joined string) (ir.JoinedColumns, error) {
	var none ir.JoinedColumns

	if quals.GetBoolExpr() != nil {
		return none, sqlerr.Unsupported("Join qualifiers with more than one condition are not supported")
	}
	expr := quals.GetAExpr()
	if expr == nil || expr.Kind != pg_query.A_Expr_Kind_AEXPR_OP {
		return none, sqlerr.Unsupported("Join qualifier must be an equality comparison between two columns")
	}
	if op := pgparse.OperatorName(expr.Name); op != "=" {
		return none, sqlerr.Unsupported("Join qualifier only supports the '=' operator, found '%s'", op)
	}

	left, err := joinColumn(expr.Lexpr, rel)
	if err != nil {
		return none, err
	}
	right, err := joinColumn(expr.Rexpr, rel)
	if err != nil {
		return none, err
	}

	for _, side := range []ir.JoinedColumn{left, right} {
		if side.Relation != joined && !rel.known(side.Relation) {
			return none, sqlerr.UnsupportedWithHint(hintMissingJoin,
				"Join qualifier references unknown relation '%s'", side.Relation)
		}
	}

	leftNew := left.Relation == joined
	rightNew := right.Relation == joined
	switch {
	case leftNew && rightNew:
		return none, sqlerr.Unsupported("Join qualifier cannot compare columns from same relation")
	case !leftNew && !rightNew:
		return none, sqlerr.Unsupported("Join qualifier must reference a column from the joined table '%s'", joined)
	case leftNew:
		left, right = right, left
	}

	return ir.JoinedColumns{Left: left, Right: right}, nil
}

// joinColumn resolves one side of a join qualifier. An unqualified column
// belongs to the primary relation.
func joinColumn(node *pg_query.Node, rel *relations) (ir.JoinedColumn, error) {
	ref := node.GetColumnRef()
	if ref == nil {
		return ir.JoinedColumn{}, sqlerr.Unsupported("Join qualifier must compare two columns, found %s", pgparse.Kind(node))
	}
	fields := pgparse.Strings(ref.Fields)
	column := fields[len(fields)-1]
	if column == "*" {
		return ir.JoinedColumn{}, sqlerr.Unsupported("Join qualifier must compare two columns, found '*'")
	}
	if len(fields) == 1 {
		return ir.JoinedColumn{Relation: rel.primaryName(), Column: column}, nil
	}
	return ir.JoinedColumn{Relation: fields[len(fields)-2], Column: column}, nil
}
