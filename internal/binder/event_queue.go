package binder

import (
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/telemetry"
	"github.com/runebind/runebind/internal/token"
)

// blockedTask is a binding step parked on some condition (an undefined
// identifier, an unbound signature, an unrefined variable type) along with
// what to report if it never unblocks (spec.md §5).
type blockedTask struct {
	what string
	run  func() bool // returns true once it has made progress and can be dropped
	tok  token.Token
}

// eventQueue implements spec.md §5's event-driven fixed point: tasks are
// parked on a key (an identifier name, a "sig:<handle>" string, a
// "class:<handle>" string) and re-run whenever that key is marked ready.
// Re-running a task that still can't proceed re-parks it under the same or
// a different key; the queue drains until nothing progresses in a full
// pass.
type eventQueue struct {
	pending map[string][]*blockedTask
	log     *telemetry.Tracer
}

func newEventQueue(log *telemetry.Tracer) *eventQueue {
	return &eventQueue{pending: make(map[string][]*blockedTask), log: log}
}

// Park registers task to be retried the next time key is marked Ready.
func (q *eventQueue) Park(key string, tok token.Token, task func() bool) {
	q.pending[key] = append(q.pending[key], &blockedTask{what: key, run: task, tok: tok})
	q.log.Parked(key)
}

// Ready retries every task parked on key immediately. Tasks that report
// false (still can't proceed) stay parked under key for the next drain
// pass.
func (q *eventQueue) Ready(key string) {
	tasks := q.pending[key]
	if len(tasks) == 0 {
		return
	}
	delete(q.pending, key)
	q.log.Woke(key, len(tasks))
	var still []*blockedTask
	for _, t := range tasks {
		if !t.run() {
			still = append(still, t)
		}
	}
	if len(still) > 0 {
		q.pending[key] = append(q.pending[key], still...)
	}
}

// drain retries every parked task repeatedly until a full pass makes no
// progress, implementing the fixed point of spec.md §5.
func (q *eventQueue) drain() {
	for {
		progressed := false
		for key, tasks := range q.pending {
			var still []*blockedTask
			for _, t := range tasks {
				if t.run() {
					progressed = true
				} else {
					still = append(still, t)
				}
			}
			if len(still) == 0 {
				delete(q.pending, key)
			} else {
				q.pending[key] = still
			}
		}
		if !progressed {
			return
		}
	}
}

// reportStillBlocked converts every task left parked at the fixed point
// into an undefined-identifier diagnostic (spec.md §7, B001).
func (q *eventQueue) reportStillBlocked(bag *diagnostics.Bag) {
	for key, tasks := range q.pending {
		for _, t := range tasks {
			q.log.StillBlocked(key)
			bag.Add(diagnostics.Newf(diagnostics.ErrUndefinedIdentifier, t.tok,
				"%s was never resolved", key))
		}
	}
}
