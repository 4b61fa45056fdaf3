// Package binder implements the semantic binder (spec.md §2, §4, §5): it
// walks a parsed ast.Program, resolves identifiers, unifies and instantiates
// types, hash-conses classes and signatures per call site, inlines
// iterators, folds constants, and reports diagnostics.
//
// Grounded on funvibe-funxy/internal/analyzer/analyzer.go's Analyzer struct
// (symbolTable + TypeMap + BaseDir + errors fields) and processor.go's
// multi-pass driver, adapted from its Hindley-Milner trait-solving model to
// spec.md §5's event-driven fixed point over monomorphic signatures — see
// DESIGN.md for why this package was rewritten rather than adapted
// incrementally.
package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/symbols"
	"github.com/runebind/runebind/internal/telemetry"
	"github.com/runebind/runebind/internal/typesystem"
)

// Binder owns every pool and table the spec's operations share: the type
// interner, the signature/class tables (spec.md §4.5), the event queue
// (spec.md §5), and the diagnostics bag.
type Binder struct {
	Program *ast.Program
	Types   *typesystem.Interner
	Errors  *diagnostics.Bag

	sigs    *signatureTable
	classes *classTable
	queue   *eventQueue

	tclassIdx   map[string]*ast.Tclass
	fnIdx       map[string]*ast.Function
	operatorIdx map[string][]*ast.Function

	relations []relationEdge
	privacy   PrivacyHook
	log       *telemetry.Tracer
}

// New allocates a Binder ready to bind prog.
func New(prog *ast.Program) *Binder {
	b := &Binder{
		Program: prog,
		Types:   typesystem.NewInterner(),
		Errors:  diagnostics.NewBag(),
		log:     telemetry.NewTracer(),
	}
	b.sigs = newSignatureTable(b)
	b.classes = newClassTable(b)
	b.queue = newEventQueue(b.log)
	return b
}

// Bind runs the binder to a fixed point (spec.md §5): it binds every
// top-level statement, draining the event queue as identifiers, signatures,
// and classes become defined, until nothing more can make progress. Any
// tasks still blocked at that point report an undefined-identifier
// diagnostic (spec.md §7, B001).
func (b *Binder) Bind() *diagnostics.Bag {
	b.registerGlobals()

	eb := newExprBinder(b)
	sb := newStmtBinder(b, eb)

	for _, stmt := range b.Program.Statements {
		sb.bindTop(stmt)
	}
	b.queue.drain()
	b.queue.reportStillBlocked(b.Errors)

	checkRootReachability(b, eb)

	foldConstants(b, b.Program)
	inlineIterators(b, b.Program)
	applyRelations(b)
	runPrivacyPass(b)

	return b.Errors
}

// registerGlobals installs every top-level function and tclass as an
// identifier in Program.Globals (spec.md §3 "Block... Scope resolution walks
// outer blocks up to the root") and backfills their body's Outer link to
// Globals when the parser (or internal/wire) left it nil, so a function or
// tclass body can see its siblings and every other global. Without this, the
// iterator inliner's callee-Referent check (spec.md §4.6) never fires for a
// plain `foreach x in someIterator()` — the common case.
func (b *Binder) registerGlobals() {
	for _, fn := range b.Program.Functions {
		symbols.Define(b.Program.Globals, fn.Name, ast.FunctionReferent{Fn: fn})
		if fn.Body != nil && fn.Body.Outer == nil {
			fn.Body.Outer = b.Program.Globals
		}
	}
	for _, tc := range b.Program.Tclasses {
		symbols.Define(b.Program.Globals, tc.Name, ast.TclassReferent{Tc: tc})
		if tc.Body != nil && tc.Body.Outer == nil {
			tc.Body.Outer = b.Program.Globals
		}
	}
}
