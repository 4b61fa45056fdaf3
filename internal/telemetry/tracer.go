// Package telemetry traces the event-driven binder's task wake-ups in
// verbose mode. Funvibe-funxy carries no logging dependency anywhere in its
// tree, so this stays on the standard library log package rather than
// importing a framework the corpus never reaches for — see DESIGN.md.
package telemetry

import (
	"log"
	"os"
)

// Tracer emits one line per blocked-task wake-up when Verbose is set. It is
// silent by default so binding a well-formed program stays quiet.
type Tracer struct {
	Verbose bool
	out     *log.Logger
}

// NewTracer builds a Tracer writing to stderr, matching the CLI's own
// diagnostic stream.
func NewTracer() *Tracer {
	return &Tracer{out: log.New(os.Stderr, "runebind: ", 0)}
}

// Parked records that a task was blocked waiting on what (an identifier
// name, a signature, or a class).
func (t *Tracer) Parked(what string) {
	if t == nil || !t.Verbose {
		return
	}
	t.out.Printf("parked on %s", what)
}

// Woke records that blocked tasks waiting on what were requeued.
func (t *Tracer) Woke(what string, n int) {
	if t == nil || !t.Verbose || n == 0 {
		return
	}
	t.out.Printf("woke %d task(s) on %s", n, what)
}

// StillBlocked records a task that never became unblocked before the fixed
// point was reached (spec.md §5: these become diagnostics).
func (t *Tracer) StillBlocked(what string) {
	if t == nil || !t.Verbose {
		return
	}
	t.out.Printf("still blocked on %s at fixed point", what)
}
