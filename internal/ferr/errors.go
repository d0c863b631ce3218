// Package ferr implements the uniform error object shared by the scanner,
// parser, resolver and root filter API: a typed error struct with a kind,
// a message, and enough location info to caret-print the offending input.
package ferr

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the phase that raised the error.
type Kind string

const (
	Lexical     Kind = "LexicalError"
	Syntactic   Kind = "SyntacticError"
	Semantic    Kind = "SemanticError"
	OutOfMemory Kind = "OutOfMemoryError"
)

// Span is a [Begin, End) byte-offset pair into the original expression text.
type Span struct {
	Begin int
	End   int
}

// Error is the filter package's uniform error type. It always carries a
// span, even for the out-of-memory singleton (an empty span at offset 0).
type Error struct {
	Kind    Kind
	Message string
	Span    Span
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s at [%d,%d): %v", e.Kind, e.Message, e.Span.Begin, e.Span.End, e.cause)
	}
	return fmt.Sprintf("%s: %s at [%d,%d)", e.Kind, e.Message, e.Span.Begin, e.Span.End)
}

// Unwrap exposes any wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewLexicalError builds a scanner-phase error pinned at span.
func NewLexicalError(span Span, format string, args ...interface{}) *Error {
	return &Error{Kind: Lexical, Message: fmt.Sprintf(format, args...), Span: span}
}

// NewSyntacticError builds a parser-phase error pinned at the offending
// token's span.
func NewSyntacticError(span Span, format string, args ...interface{}) *Error {
	return &Error{Kind: Syntactic, Message: fmt.Sprintf(format, args...), Span: span}
}

// NewSemanticError builds a resolver-phase error pinned at the offending AST
// node's span.
func NewSemanticError(span Span, format string, args ...interface{}) *Error {
	return &Error{Kind: Semantic, Message: fmt.Sprintf(format, args...), Span: span}
}

// WithCause attaches an underlying cause (e.g. a failed host callback),
// wrapped with github.com/pkg/errors so a stack trace is available to
// diagnostics without changing Error()'s message shape.
func (e *Error) WithCause(cause error) *Error {
	e.cause = pkgerrors.WithStack(cause)
	return e
}

// ErrOutOfMemory is a process-wide immutable singleton, constructed once
// and never mutated, so error reporting itself cannot fail on allocation.
var ErrOutOfMemory = &Error{Kind: OutOfMemory, Message: "out of memory"}
