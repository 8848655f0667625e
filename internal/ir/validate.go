package ir

import "fmt"

// ValidationResult lists the structural problems found in a statement.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violated invariant, in traversal order.
	Problems []string
}

// Validate checks a statement against the IR invariants:
//  1. A Select names a relation and selects at least one target
//  2. Aggregates are supported functions; only count may omit its column
//  3. Embedded targets form a tree: no target list is shared
//  4. Operator is takes Null, operator in takes a List of scalars, every
//     other operator takes a scalar, and Numeric text is a JSON number
//  5. Logical filters have at least one child
//  6. A Limit sets at least one of count and offset, neither negative
//
// The processor only returns statements that pass. Renderers call Validate
// on their input so hand-built IR fails early with a clear message.
//
// Validate is a pure function with no side effects.
func Validate(stmt Statement) ValidationResult {
	v := &validator{
		problems: []string{},
		seen:     map[*EmbeddedTarget]bool{},
	}
	v.validateStatement(stmt)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
	seen     map[*EmbeddedTarget]bool
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateStatement(stmt Statement) {
	switch s := stmt.(type) {
	case *Select:
		if s == nil {
			v.addProblem("nil select statement")
			return
		}
		v.validateSelect(s)
	case nil:
		v.addProblem("nil statement")
	default:
		v.addProblem("unknown statement type: %T", stmt)
	}
}

func (v *validator) validateSelect(sel *Select) {
	if sel.From == "" {
		v.addProblem("select has no relation")
	}
	if len(sel.Targets) == 0 {
		v.addProblem("select has no targets")
	}
	v.validateTargets(sel.From, sel.Targets)

	if sel.Filter != nil {
		v.validateFilter(sel.Filter)
	}

	for i, s := range sel.Sorts {
		if s.Column == "" {
			v.addProblem("sorts[%d]: empty column", i)
		}
		switch s.Direction {
		case SortDefault, SortAsc, SortDesc:
		default:
			v.addProblem("sorts[%d]: unknown direction %q", i, s.Direction)
		}
		switch s.Nulls {
		case NullsDefault, NullsFirst, NullsLast:
		default:
			v.addProblem("sorts[%d]: unknown nulls order %q", i, s.Nulls)
		}
	}

	if sel.Limit != nil {
		v.validateLimit(sel.Limit)
	}
}

func (v *validator) validateTargets(owner string, targets []Target) {
	for i, t := range targets {
		switch target := t.(type) {
		case *ColumnTarget:
			if target.Column == "" {
				v.addProblem("%s.targets[%d]: empty column", owner, i)
			}
		case *AggregateTarget:
			if !ValidAggregate(string(target.FunctionName)) {
				v.addProblem("%s.targets[%d]: unknown aggregate %q", owner, i, target.FunctionName)
			}
			if target.Column == "" && target.FunctionName != AggregateCount {
				v.addProblem("%s.targets[%d]: %s() requires a column", owner, i, target.FunctionName)
			}
		case *EmbeddedTarget:
			v.validateEmbedded(owner, i, target)
		default:
			v.addProblem("%s.targets[%d]: unknown target type %T", owner, i, t)
		}
	}
}

func (v *validator) validateEmbedded(owner string, i int, e *EmbeddedTarget) {
	if v.seen[e] {
		v.addProblem("%s.targets[%d]: embedded target %q has more than one parent", owner, i, e.Relation)
		return
	}
	v.seen[e] = true

	if e.Relation == "" {
		v.addProblem("%s.targets[%d]: embedded target has no relation", owner, i)
	}
	switch e.JoinType {
	case JoinLeft, JoinInner:
	default:
		v.addProblem("%s.targets[%d]: unknown join type %q", owner, i, e.JoinType)
	}

	jc := e.JoinedColumns
	if jc.Left.Relation == "" || jc.Left.Column == "" || jc.Right.Relation == "" || jc.Right.Column == "" {
		v.addProblem("%s.targets[%d]: incomplete join columns for %q", owner, i, e.Relation)
	}
	if jc.Right.Relation != "" && jc.Right.Relation != e.Name() {
		v.addProblem("%s.targets[%d]: join right side %q does not name %q", owner, i, jc.Right.Relation, e.Name())
	}

	v.validateTargets(e.Name(), e.Targets)
}

func (v *validator) validateFilter(f Filter) {
	switch filter := f.(type) {
	case *ColumnFilter:
		v.validateColumnFilter(filter)
	case *LogicalFilter:
		if filter.Operator != LogicalAnd && filter.Operator != LogicalOr {
			v.addProblem("unknown logical operator %q", filter.Operator)
		}
		if len(filter.Values) == 0 {
			v.addProblem("%s filter has no children", filter.Operator)
		}
		for _, child := range filter.Values {
			v.validateFilter(child)
		}
	default:
		v.addProblem("unknown filter type: %T", f)
	}
}

func (v *validator) validateColumnFilter(f *ColumnFilter) {
	if f.Column == "" {
		v.addProblem("filter has empty column")
	}
	if !validOperators[f.Operator] {
		v.addProblem("filter on %q: unknown operator %q", f.Column, f.Operator)
		return
	}

	switch f.Operator {
	case OpIs:
		if _, ok := f.Value.(Null); !ok {
			v.addProblem("filter on %q: operator is requires null, got %T", f.Column, f.Value)
		}
	case OpIn:
		list, ok := f.Value.(List)
		if !ok {
			v.addProblem("filter on %q: operator in requires a list, got %T", f.Column, f.Value)
			return
		}
		for i, elem := range list {
			if !IsScalar(elem) {
				v.addProblem("filter on %q: list element %d is %T", f.Column, i, elem)
			}
			v.validateNumeric(f.Column, elem)
		}
	default:
		if !IsScalar(f.Value) {
			v.addProblem("filter on %q: operator %s requires a scalar, got %T", f.Column, f.Operator, f.Value)
		}
		v.validateNumeric(f.Column, f.Value)
	}
}

func (v *validator) validateNumeric(column string, val Value) {
	if n, ok := val.(Numeric); ok && !n.Valid() {
		v.addProblem("filter on %q: malformed numeric literal %q", column, string(n))
	}
}

func (v *validator) validateLimit(l *Limit) {
	if l.Count == nil && l.Offset == nil {
		v.addProblem("limit sets neither count nor offset")
	}
	if l.Count != nil && *l.Count < 0 {
		v.addProblem("limit count is negative: %d", *l.Count)
	}
	if l.Offset != nil && *l.Offset < 0 {
		v.addProblem("limit offset is negative: %d", *l.Offset)
	}
}
