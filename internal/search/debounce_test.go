package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitRecorder collects committed terms.
type commitRecorder struct {
	mu    sync.Mutex
	terms []string
}

func (r *commitRecorder) record(term string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terms = append(r.terms, term)
}

func (r *commitRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.terms))
	copy(out, r.terms)
	return out
}

func waitForCommits(t *testing.T, r *commitRecorder, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if terms := r.all(); len(terms) >= n {
			return terms
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d commits, got %v", n, r.all())
	return nil
}

func TestDebouncer_FastTypingCommitsOnce(t *testing.T) {
	rec := &commitRecorder{}
	d := NewDebouncer(40*time.Millisecond, rec.record)
	defer d.Cancel()

	for _, term := range []string{"p", "pi", "pik", "pika"} {
		d.SetTerm(term)
	}

	assert.Equal(t, "pika", d.Term(), "raw term updates synchronously")
	assert.True(t, d.Typing())
	assert.Empty(t, d.Committed(), "nothing commits before the quiet period")

	terms := waitForCommits(t, rec, 1)
	assert.Equal(t, []string{"pika"}, terms, "one commit for the whole burst")
	assert.Equal(t, "pika", d.Committed())
	assert.False(t, d.Typing())
}

func TestDebouncer_ShortTermNeverCommits(t *testing.T) {
	rec := &commitRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.record)
	defer d.Cancel()

	d.SetTerm("p")
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, d.Committed())
	assert.Empty(t, rec.all())
	assert.True(t, d.Typing())
}

func TestDebouncer_ShrinkingBelowMinClearsImmediately(t *testing.T) {
	rec := &commitRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.record)
	defer d.Cancel()

	d.SetTerm("pika")
	waitForCommits(t, rec, 1)
	require.Equal(t, "pika", d.Committed())

	// Deleting down to one character clears the committed term without
	// waiting for the quiet period.
	d.SetTerm("p")
	assert.Empty(t, d.Committed())
	terms := waitForCommits(t, rec, 2)
	assert.Equal(t, []string{"pika", ""}, terms)
}

func TestDebouncer_WhitespaceOnlyDoesNotCommit(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Cancel()

	d.SetTerm("   ")
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, d.Committed())
}

func TestDebouncer_CancelStopsPendingCommit(t *testing.T) {
	rec := &commitRecorder{}
	d := NewDebouncer(30*time.Millisecond, rec.record)

	d.SetTerm("pika")
	d.Cancel()

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, d.Committed())
	assert.Empty(t, rec.all())
}

func TestDebouncer_SyncBypassesDelay(t *testing.T) {
	d := NewDebouncer(time.Hour, nil)
	defer d.Cancel()

	d.Sync("charizard")
	assert.Equal(t, "charizard", d.Committed())
	assert.Equal(t, "charizard", d.Term())
	assert.False(t, d.Typing())

	// A sync below the minimum clears instead.
	d.Sync("c")
	assert.Empty(t, d.Committed())
}

func TestDebouncer_SyncSupersedesPendingTimer(t *testing.T) {
	rec := &commitRecorder{}
	d := NewDebouncer(30*time.Millisecond, rec.record)
	defer d.Cancel()

	d.SetTerm("pika")
	d.Sync("charizard")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, "charizard", d.Committed(), "stale timer must not overwrite the sync")
}
