// Package pgparse is the boundary to the PostgreSQL parser.
//
// SQL text is parsed by pg_query_go, the Go binding of libpg_query, into
// the same protobuf AST the server itself builds. Parser failures are
// converted to *sqlerr.ParsingError so callers only ever see the shared
// error taxonomy.
package pgparse

import (
	"context"
	"errors"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/pganalyze/pg_query_go/v6/parser"

	"github.com/roach88/sql2rest/internal/sqlerr"
)

// Parser turns SQL text into a parse tree.
//
// Implementations must be safe for concurrent use.
type Parser interface {
	Parse(ctx context.Context, sql string) (*pg_query.ParseResult, error)
}

// PgQuery is the default Parser backed by libpg_query.
type PgQuery struct{}

// Default is the parser used when none is configured.
var Default Parser = PgQuery{}

// Parse parses sql. The parse runs in its own goroutine so that a
// cancelled context returns immediately; the cgo call itself cannot be
// interrupted and is left to finish in the background.
func (PgQuery) Parse(ctx context.Context, sql string) (*pg_query.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type parsed struct {
		result *pg_query.ParseResult
		err    error
	}
	done := make(chan parsed, 1)

	go func() {
		result, err := pg_query.Parse(sql)
		done <- parsed{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-done:
		if p.err != nil {
			return nil, toParsingError(p.err)
		}
		return p.result, nil
	}
}

// toParsingError converts a pg_query error into a ParsingError, keeping
// the cursor position when the parser reported one.
func toParsingError(err error) error {
	var pe *parser.Error
	if errors.As(err, &pe) {
		return sqlerr.NewParsingError(pe.Message, pe.Cursorpos, err)
	}
	return sqlerr.NewParsingError(err.Error(), 0, err)
}
