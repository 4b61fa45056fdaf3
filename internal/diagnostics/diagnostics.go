// Package diagnostics defines the binder's error kinds (spec.md §7).
// Grounded on funxy/internal/analyzer's use of *diagnostics.DiagnosticError
// and diagnostics.ErrorCode (see analyzer_errors_test.go's expectAnalyzerError):
// every semantic error is a typed code plus a human message plus a source
// position, deduplicated and sorted the same way walker.getErrors does.
package diagnostics

import (
	"fmt"

	"github.com/runebind/runebind/internal/token"
)

// ErrorCode is a stable identifier for a kind of semantic error.
type ErrorCode string

// Error kinds, one per spec.md §7 "Kinds" entry.
const (
	ErrUndefinedIdentifier     ErrorCode = "B001" // undefined-identifier
	ErrTypeMismatch            ErrorCode = "B002" // type-mismatch
	ErrInvalidCast             ErrorCode = "B003" // invalid-cast
	ErrWrongArity              ErrorCode = "B004" // wrong-arity
	ErrMissingDefault          ErrorCode = "B005" // missing-default
	ErrSecretViolation         ErrorCode = "B006" // secret-violation
	ErrOverflowWouldOccur      ErrorCode = "B007" // overflow-would-occur
	ErrReachability            ErrorCode = "B008" // reachability
	ErrAmbiguousOverload       ErrorCode = "B009" // ambiguous-overload
	ErrCyclicDependency        ErrorCode = "B010" // cyclic-dependency
	ErrInvalidModularExpr      ErrorCode = "B011" // invalid-modular-expression
	ErrConstReassignment       ErrorCode = "B012" // assignment to a const binding
	ErrYieldOutsideIterator    ErrorCode = "B013"
	ErrNoTerminatingReturn     ErrorCode = "B014"
	ErrRelationTargetNotClass  ErrorCode = "B015"
	ErrUnrefNotRefCounted      ErrorCode = "B016"
)

// TypePair is attached to type-mismatch diagnostics so the caller can render
// both the prior and the newly seen datatype (spec.md §7).
type TypePair struct {
	Prior string
	New   string
}

// Error carries everything spec.md §7 requires: kind, message, source line,
// and an optional prior/new datatype pair for unification failures.
type Error struct {
	Code     ErrorCode
	Message  string
	Token    token.Token
	Mismatch *TypePair
}

func (e *Error) Error() string {
	if e.Mismatch != nil {
		return fmt.Sprintf("%s: %s (line %d): expected %s, got %s",
			e.Code, e.Message, e.Token.Line, e.Mismatch.Prior, e.Mismatch.New)
	}
	return fmt.Sprintf("%s: %s (line %d)", e.Code, e.Message, e.Token.Line)
}

// New builds a plain diagnostic.
func New(code ErrorCode, tok token.Token, message string) *Error {
	return &Error{Code: code, Message: message, Token: tok}
}

// Newf builds a plain diagnostic with a formatted message.
func Newf(code ErrorCode, tok token.Token, format string, args ...any) *Error {
	return New(code, tok, fmt.Sprintf(format, args...))
}

// NewMismatch builds a type-mismatch diagnostic carrying both datatypes.
func NewMismatch(code ErrorCode, tok token.Token, message, prior, new string) *Error {
	return &Error{Code: code, Message: message, Token: tok, Mismatch: &TypePair{Prior: prior, New: new}}
}

// Bag accumulates diagnostics while binding, deduplicating by position+code
// and sorting by source position before being surfaced — the same shape as
// funxy's walker.errorSet / walker.getErrors.
type Bag struct {
	byKey map[string]*Error
	order []string
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{byKey: make(map[string]*Error)}
}

// Add records a diagnostic, keeping the first one reported at a given
// line/column/code triple.
func (b *Bag) Add(err *Error) {
	key := fmt.Sprintf("%d:%d:%s", err.Token.Line, err.Token.Column, err.Code)
	if _, exists := b.byKey[key]; exists {
		return
	}
	b.byKey[key] = err
	b.order = append(b.order, key)
}

// Errors returns the accumulated diagnostics sorted by source position.
func (b *Bag) Errors() []*Error {
	out := make([]*Error, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.byKey[key])
	}
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && less(out[j], out[j-1]) {
			out[j], out[j-1] = out[j-1], out[j]
			j--
		}
	}
	return out
}

func less(a, b *Error) bool {
	if a.Token.Line != b.Token.Line {
		return a.Token.Line < b.Token.Line
	}
	return a.Token.Column < b.Token.Column
}

// HasErrors reports whether any diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	return len(b.order) > 0
}
