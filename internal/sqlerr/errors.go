// Package sqlerr defines the error taxonomy shared by the processor and
// the renderers.
//
// Every failure surfaced to a caller is one of four kinds:
//   - ParsingError: the SQL text itself was rejected by the parser
//   - UnsupportedError: valid SQL using a construct that has no translation
//   - UnimplementedError: a statement kind other than SELECT
//   - RenderError: valid IR that a specific renderer cannot express
//
// All helpers use errors.As, so errors may be wrapped freely with %w.
package sqlerr

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for an error kind.
type Code string

const (
	// CodeParsing identifies a ParsingError.
	CodeParsing Code = "E_PARSE"

	// CodeUnsupported identifies an UnsupportedError.
	CodeUnsupported Code = "E_UNSUPPORTED"

	// CodeUnimplemented identifies an UnimplementedError.
	CodeUnimplemented Code = "E_UNIMPLEMENTED"

	// CodeRender identifies a RenderError.
	CodeRender Code = "E_RENDER"

	// CodeGeneric is returned for errors outside the taxonomy.
	CodeGeneric Code = "E001"
)

// Renderer names the renderer that raised a RenderError.
type Renderer string

const (
	RendererHTTP       Renderer = "http"
	RendererSupabaseJS Renderer = "supabase-js"
)

// ParsingError is returned when the upstream parser rejects the SQL text.
type ParsingError struct {
	// Message is the parser message, sentence-cased.
	Message string

	// Hint suggests a likely fix. Empty when no pattern matched.
	Hint string

	// Position is the 1-based cursor position reported by the parser,
	// or 0 when unknown.
	Position int

	// Err is the original parser error.
	Err error
}

func (e *ParsingError) Error() string {
	return e.Message
}

func (e *ParsingError) Unwrap() error {
	return e.Err
}

// UnsupportedError is returned for valid SQL that uses a construct the
// translator cannot express.
type UnsupportedError struct {
	Message string
	Hint    string
}

func (e *UnsupportedError) Error() string {
	return e.Message
}

// UnimplementedError is returned for statement kinds with no translation.
type UnimplementedError struct {
	Message string
}

func (e *UnimplementedError) Error() string {
	return e.Message
}

// RenderError is returned when a renderer's target syntax cannot express
// an otherwise valid statement.
type RenderError struct {
	Message  string
	Renderer Renderer
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Renderer, e.Message)
}

// Unsupported creates an UnsupportedError with a formatted message.
func Unsupported(format string, args ...any) *UnsupportedError {
	return &UnsupportedError{Message: fmt.Sprintf(format, args...)}
}

// UnsupportedWithHint creates an UnsupportedError carrying a hint.
func UnsupportedWithHint(hint, format string, args ...any) *UnsupportedError {
	return &UnsupportedError{Message: fmt.Sprintf(format, args...), Hint: hint}
}

// Unimplemented creates an UnimplementedError with a formatted message.
func Unimplemented(format string, args ...any) *UnimplementedError {
	return &UnimplementedError{Message: fmt.Sprintf(format, args...)}
}

// NewRenderError creates a RenderError for the given renderer.
func NewRenderError(renderer Renderer, format string, args ...any) *RenderError {
	return &RenderError{Message: fmt.Sprintf(format, args...), Renderer: renderer}
}

// IsParsing reports whether err is (or wraps) a ParsingError.
func IsParsing(err error) bool {
	var pe *ParsingError
	return errors.As(err, &pe)
}

// IsUnsupported reports whether err is (or wraps) an UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// IsUnimplemented reports whether err is (or wraps) an UnimplementedError.
func IsUnimplemented(err error) bool {
	var ue *UnimplementedError
	return errors.As(err, &ue)
}

// IsRender reports whether err is (or wraps) a RenderError.
func IsRender(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}

// HintOf returns the remediation hint carried by err, if any.
func HintOf(err error) string {
	var pe *ParsingError
	if errors.As(err, &pe) {
		return pe.Hint
	}
	var ue *UnsupportedError
	if errors.As(err, &ue) {
		return ue.Hint
	}
	return ""
}

// CodeOf maps err to its stable code.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case IsParsing(err):
		return CodeParsing
	case IsUnsupported(err):
		return CodeUnsupported
	case IsUnimplemented(err):
		return CodeUnimplemented
	case IsRender(err):
		return CodeRender
	default:
		return CodeGeneric
	}
}

// Kind names, as written in conformance suites.
const (
	KindParsing       = "parsing"
	KindUnsupported   = "unsupported"
	KindUnimplemented = "unimplemented"
	KindRender        = "render"
	KindOther         = "other"
)

// Kind returns a short lowercase name for the error kind, suitable for
// fixture files. Errors outside the taxonomy return KindOther; a nil
// error returns "".
func Kind(err error) string {
	switch CodeOf(err) {
	case CodeParsing:
		return KindParsing
	case CodeUnsupported:
		return KindUnsupported
	case CodeUnimplemented:
		return KindUnimplemented
	case CodeRender:
		return KindRender
	case "":
		return ""
	default:
		return KindOther
	}
}
