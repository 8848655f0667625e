package ir

// Statement is a translated SQL statement.
//
// This is a sealed interface. Select is the only variant; other statement
// kinds are rejected before an IR is built.
type Statement interface {
	statementNode()
}

// Target is one entry of a select list.
//
// This is a sealed interface - only ColumnTarget, AggregateTarget and
// EmbeddedTarget implement it.
type Target interface {
	targetNode()
}

// Filter is a node of the WHERE tree.
//
// This is a sealed interface - only ColumnFilter and LogicalFilter implement it.
type Filter interface {
	filterNode()

	// Negated reports whether a NOT was folded into this node.
	Negated() bool
}

// Select is a single-relation read with optional embedded relations.
//
//	SELECT <targets> FROM <from> [JOIN ...] WHERE <filter> ORDER BY <sorts> LIMIT/OFFSET <limit>
//
// Joined relations never appear here directly. They are EmbeddedTargets
// inside Targets, nested to mirror the join tree rooted at From.
type Select struct {
	From    string   // primary relation name
	Targets []Target // select list, never empty
	Filter  Filter   // nil = no WHERE
	Sorts   []Sort   // empty = no ORDER BY
	Limit   *Limit   // nil = no LIMIT/OFFSET
}

func (*Select) statementNode() {}

// ColumnTarget selects one column, "*", or a JSON path such as
// "address->city".
type ColumnTarget struct {
	Column string
	Alias  string // empty = no alias
	Cast   string // empty = no cast
}

func (*ColumnTarget) targetNode() {}

// AggregateFunction names a supported aggregate.
type AggregateFunction string

const (
	AggregateAvg   AggregateFunction = "avg"
	AggregateCount AggregateFunction = "count"
	AggregateMax   AggregateFunction = "max"
	AggregateMin   AggregateFunction = "min"
	AggregateSum   AggregateFunction = "sum"
)

// ValidAggregate reports whether name is a supported aggregate function.
func ValidAggregate(name string) bool {
	switch AggregateFunction(name) {
	case AggregateAvg, AggregateCount, AggregateMax, AggregateMin, AggregateSum:
		return true
	}
	return false
}

// AggregateTarget applies an aggregate to a column.
//
// Column is empty only for count() and count(*).
type AggregateTarget struct {
	FunctionName AggregateFunction
	Column       string
	InputCast    string // cast applied to the column before aggregating
	OutputCast   string // cast applied to the aggregate result
	Alias        string
}

func (*AggregateTarget) targetNode() {}

// JoinType is the join kind of an embedded relation.
type JoinType string

const (
	JoinLeft  JoinType = "left"
	JoinInner JoinType = "inner"
)

// JoinedColumn is one side of a join qualifier.
type JoinedColumn struct {
	Relation string // relation name or alias as written in SQL
	Column   string
}

// JoinedColumns is a normalized join qualifier. Left is always the parent
// side (the primary relation or an earlier join) and Right the relation
// being joined, whichever side of "=" they were written on.
type JoinedColumns struct {
	Left  JoinedColumn
	Right JoinedColumn
}

// EmbeddedTarget is a joined relation with its own select list.
//
// Targets may hold further EmbeddedTargets. Each EmbeddedTarget is owned
// by exactly one parent list.
type EmbeddedTarget struct {
	Relation      string
	Alias         string
	JoinType      JoinType
	JoinedColumns JoinedColumns
	Targets       []Target
	Flatten       bool // spread the embedded columns into the parent row
}

func (*EmbeddedTarget) targetNode() {}

// Name returns the alias when set, otherwise the relation name. This is
// the name other clauses use to refer to the relation.
func (e *EmbeddedTarget) Name() string {
	if e.Alias != "" {
		return e.Alias
	}
	return e.Relation
}

// Operator is a column comparison operator.
type Operator string

const (
	OpEq     Operator = "eq"
	OpNeq    Operator = "neq"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpLike   Operator = "like"
	OpILike  Operator = "ilike"
	OpMatch  Operator = "match"
	OpIMatch Operator = "imatch"
	OpIs     Operator = "is"
	OpIn     Operator = "in"
)

// validOperators lists every Operator constant.
var validOperators = map[Operator]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpLike: true, OpILike: true, OpMatch: true, OpIMatch: true, OpIs: true, OpIn: true,
}

// ColumnFilter compares a column (or JSON path) with a value.
//
// OpIs restricts Value to Null; OpIn requires a List.
type ColumnFilter struct {
	Column   string
	Operator Operator
	Value    Value
	Negate   bool
}

func (*ColumnFilter) filterNode() {}

// Negated reports whether the comparison is negated.
func (f *ColumnFilter) Negated() bool { return f.Negate }

// LogicalOperator combines child filters.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
)

// LogicalFilter is an AND or OR over child filters.
type LogicalFilter struct {
	Operator LogicalOperator
	Values   []Filter
	Negate   bool
}

func (*LogicalFilter) filterNode() {}

// Negated reports whether the group is negated.
func (f *LogicalFilter) Negated() bool { return f.Negate }

// SortDirection is an explicit ORDER BY direction.
type SortDirection string

const (
	SortDefault SortDirection = ""
	SortAsc     SortDirection = "asc"
	SortDesc    SortDirection = "desc"
)

// NullsOrder is an explicit NULLS FIRST/LAST.
type NullsOrder string

const (
	NullsDefault NullsOrder = ""
	NullsFirst   NullsOrder = "first"
	NullsLast    NullsOrder = "last"
)

// Sort is one ORDER BY item.
type Sort struct {
	Column    string
	Direction SortDirection
	Nulls     NullsOrder
}

// Limit holds LIMIT and OFFSET. At least one is set.
type Limit struct {
	Count  *int64
	Offset *int64
}
