// Package processor turns a parsed SQL SELECT into the translator's IR.
//
// Processing happens in fixed order: FROM (primary relation and join tree),
// the target list, WHERE, ORDER BY, LIMIT/OFFSET, then GROUP BY
// consistency. Any construct that cannot be expressed as a PostgREST
// request fails the whole statement; a partial IR is never returned.
package processor

import (
	"context"
	"io"
	"log/slog"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/pgparse"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

// Processor converts SQL text or parse trees into IR statements.
//
// A Processor holds no per-call state and is safe for concurrent use.
type Processor struct {
	parser pgparse.Parser
	logger *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithParser replaces the SQL parser.
func WithParser(p pgparse.Parser) Option {
	return func(proc *Processor) {
		proc.parser = p
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(proc *Processor) {
		proc.logger = l
	}
}

// New creates a Processor using libpg_query and a discarding logger
// unless options say otherwise.
func New(opts ...Option) *Processor {
	p := &Processor{
		parser: pgparse.Default,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessSQL parses sql and processes the single statement it contains.
func ProcessSQL(ctx context.Context, sql string) (ir.Statement, error) {
	return New().ProcessSQL(ctx, sql)
}

// ProcessSQL parses sql and processes the single statement it contains.
//
// Errors are *sqlerr.ParsingError, *sqlerr.UnsupportedError or
// *sqlerr.UnimplementedError, or the context error if ctx ends while
// parsing.
func (p *Processor) ProcessSQL(ctx context.Context, sql string) (ir.Statement, error) {
	result, err := p.parser.Parse(ctx, sql)
	if err != nil {
		return nil, err
	}
	return p.Process(result)
}

// Process converts a parse result holding exactly one statement.
func (p *Processor) Process(result *pg_query.ParseResult) (ir.Statement, error) {
	if result == nil || len(result.Stmts) == 0 {
		return nil, sqlerr.Unsupported("Expected a statement, but received none")
	}
	if len(result.Stmts) > 1 {
		return nil, sqlerr.Unsupported("Expected a single statement, but received multiple")
	}

	node := result.Stmts[0].Stmt
	switch n := node.GetNode().(type) {
	case *pg_query.Node_SelectStmt:
		return p.processSelect(n.SelectStmt)
	case *pg_query.Node_InsertStmt:
		return nil, sqlerr.Unimplemented("Insert statements are not yet implemented by the translator")
	case *pg_query.Node_UpdateStmt:
		return nil, sqlerr.Unimplemented("Update statements are not yet implemented by the translator")
	case *pg_query.Node_DeleteStmt:
		return nil, sqlerr.Unimplemented("Delete statements are not yet implemented by the translator")
	case *pg_query.Node_ExplainStmt:
		return nil, sqlerr.Unimplemented("Explain statements are not yet implemented by the translator")
	default:
		return nil, sqlerr.Unimplemented("%s statements are not yet implemented by the translator", strings.TrimSuffix(pgparse.Kind(node), "Stmt"))
	}
}

func (p *Processor) processSelect(stmt *pg_query.SelectStmt) (ir.Statement, error) {
	if err := checkSelectShape(stmt); err != nil {
		return nil, err
	}

	rel, err := processFromClause(stmt.FromClause[0])
	if err != nil {
		return nil, err
	}

	targets, placed, err := processTargetList(stmt.TargetList, rel)
	if err != nil {
		return nil, err
	}

	filter, err := processWhereClause(stmt.WhereClause, rel)
	if err != nil {
		return nil, err
	}

	sorts, err := processSortClause(stmt.SortClause, rel)
	if err != nil {
		return nil, err
	}

	limit, err := processLimit(stmt)
	if err != nil {
		return nil, err
	}

	if err := validateGroupBy(stmt.GroupClause, placed, rel); err != nil {
		return nil, err
	}

	sel := &ir.Select{
		From:    rel.primary,
		Targets: targets,
		Filter:  filter,
		Sorts:   sorts,
		Limit:   limit,
	}

	if result := ir.Validate(sel); !result.Valid {
		return nil, sqlerr.Unsupported("Something went wrong, the translated query is invalid: %s", strings.Join(result.Problems, "; "))
	}

	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		fp, _ := ir.Fingerprint(sel)
		p.logger.Debug("processed select",
			"from", sel.From,
			"targets", len(sel.Targets),
			"embedded", rel.names(),
			"sorts", len(sel.Sorts),
			"fingerprint", fp)
	}

	return sel, nil
}

// checkSelectShape rejects SELECT features that have no PostgREST form.
func checkSelectShape(stmt *pg_query.SelectStmt) error {
	switch {
	case stmt.Op != pg_query.SetOperation_SETOP_NONE:
		return sqlerr.Unsupported("Set operations (UNION, INTERSECT, EXCEPT) are not supported")
	case len(stmt.ValuesLists) > 0:
		return sqlerr.Unsupported("VALUES lists are not supported")
	case stmt.WithClause != nil:
		return sqlerr.Unsupported("CTEs are not supported")
	case len(stmt.FromClause) == 0:
		return sqlerr.UnsupportedWithHint(
			"Did you forget to include a FROM clause?",
			"The query must select from a relation")
	case len(stmt.TargetList) == 0:
		return sqlerr.UnsupportedWithHint(
			"Select a column or * to return rows",
			"The query must select at least one target")
	case len(stmt.FromClause) > 1:
		return sqlerr.UnsupportedWithHint(
			"Use a JOIN to combine relations",
			"Only one FROM source is supported")
	case stmt.HavingClause != nil:
		return sqlerr.Unsupported("The HAVING clause is not supported")
	case len(stmt.DistinctClause) > 0:
		return sqlerr.Unsupported("SELECT DISTINCT is not supported")
	case len(stmt.WindowClause) > 0:
		return sqlerr.Unsupported("Window functions are not supported")
	case len(stmt.LockingClause) > 0:
		return sqlerr.Unsupported("Locking clauses (FOR UPDATE, FOR SHARE) are not supported")
	case stmt.IntoClause != nil:
		return sqlerr.Unsupported("SELECT INTO is not supported")
	}
	return nil
}
