// Package ir defines the intermediate representation produced by the
// processor and consumed by the renderers.
//
// The IR is a small tree of sealed interfaces:
//
//	Statement ── *Select
//	Target    ── *ColumnTarget | *AggregateTarget | *EmbeddedTarget
//	Filter    ── *ColumnFilter | *LogicalFilter
//	Value     ── String | Int | Numeric | Null | List
//
// Each interface is sealed with an unexported marker method so renderers can
// switch exhaustively over the variants. Negation is a flag on Filter nodes;
// there is no NOT node.
//
// ir imports nothing internal. Every other internal package may import it.
package ir
