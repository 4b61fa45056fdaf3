package telemetry

import "testing"

func TestTracerSilentByDefault(t *testing.T) {
	tr := NewTracer()
	if tr.Verbose {
		t.Fatal("NewTracer should default to quiet")
	}
	// None of these should panic even though Verbose is off; there is no
	// observable effect to assert on beyond "doesn't crash".
	tr.Parked("foo")
	tr.Woke("foo", 3)
	tr.StillBlocked("foo")
}

func TestTracerNilReceiverIsNoop(t *testing.T) {
	var tr *Tracer
	tr.Parked("foo")
	tr.Woke("foo", 1)
	tr.StillBlocked("foo")
}

func TestTracerWokeSkipsZeroCount(t *testing.T) {
	tr := NewTracer()
	tr.Verbose = true
	// n == 0 must be a no-op regardless of Verbose; nothing to assert beyond
	// not panicking since the underlying logger always writes to stderr.
	tr.Woke("foo", 0)
}
