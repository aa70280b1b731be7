// Package search implements the interactive catalog search pipeline:
// keystroke debouncing, offset pagination and the multi-stage name
// search itself.
package search

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultDelay is how long input must be quiet before a term commits.
	DefaultDelay = 300 * time.Millisecond
	// MinTermLength is the shortest term worth searching for.
	MinTermLength = 2
)

// Debouncer turns a stream of keystrokes into committed search terms.
// The raw term updates synchronously; the committed term trails it by
// the configured delay so that fast typing produces a single search.
// Terms shorter than the minimum never commit.
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	minLen    int
	raw       string
	committed string
	typing    bool
	timer     *time.Timer
	gen       int
	closed    bool
	onCommit  func(term string)
}

// NewDebouncer creates a debouncer with the given quiet period.
// onCommit, when non-nil, fires on every committed-term change
// (including clears) from the timer goroutine.
func NewDebouncer(delay time.Duration, onCommit func(term string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, minLen: MinTermLength, onCommit: onCommit}
}

// SetTerm records a keystroke. The committed term updates only after
// the quiet period, or immediately when the term drops below the
// minimum length.
func (d *Debouncer) SetTerm(raw string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	d.raw = raw
	d.gen++
	d.stopTimerLocked()

	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < d.minLen {
		// Too short to search: clear any stale committed term right
		// away so dependent views empty out without waiting.
		changed := d.committed != ""
		d.committed = ""
		d.typing = trimmed != "" || raw != ""
		notify := d.onCommit
		d.mu.Unlock()
		if changed && notify != nil {
			notify("")
		}
		return
	}

	d.typing = true
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.commit(gen, trimmed) })
	d.mu.Unlock()
}

func (d *Debouncer) commit(gen int, term string) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.committed = term
	d.typing = false
	notify := d.onCommit
	d.mu.Unlock()

	if notify != nil {
		notify(term)
	}
}

// Sync force-commits a term, bypassing the delay. Used when the term
// arrives from outside the input loop, e.g. a saved session restore.
func (d *Debouncer) Sync(term string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.raw = term
	d.gen++
	d.stopTimerLocked()
	trimmed := strings.TrimSpace(term)
	if len(trimmed) < d.minLen {
		trimmed = ""
	}
	d.committed = trimmed
	d.typing = false
	d.mu.Unlock()
}

// Term returns the raw, as-typed term.
func (d *Debouncer) Term() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Committed returns the last committed term, "" when none.
func (d *Debouncer) Committed() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

// Typing reports whether input changed since the last commit.
func (d *Debouncer) Typing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typing
}

// Cancel stops the pending timer and prevents any further commits.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopTimerLocked()
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
