// Package optimistic implements the apply-then-confirm pattern for small
// UI state like favorite flags: flip the local state immediately, run the
// server call, and roll the state back if the call fails.
package optimistic

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned when a toggle is attempted while the previous
// one is still waiting on the server. The attempt is rejected outright,
// not queued; the user can retry once the state settles.
var ErrInFlight = errors.New("optimistic: update already in flight")

// Toggle coordinates one piece of optimistically-updated state.
type Toggle struct {
	mu       sync.Mutex
	inFlight bool
}

// Run applies the local mutation, then runs commit. apply returns the
// undo closure that restores the previous state; it is invoked only when
// commit fails. The commit error is returned as-is so callers can show
// the server's message next to the reverted state.
func (t *Toggle) Run(ctx context.Context, apply func() (undo func()), commit func(ctx context.Context) error) error {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return ErrInFlight
	}
	t.inFlight = true
	undo := apply()
	t.mu.Unlock()

	err := commit(ctx)

	t.mu.Lock()
	t.inFlight = false
	if err != nil && undo != nil {
		undo()
	}
	t.mu.Unlock()
	return err
}

// InFlight reports whether a commit is currently outstanding.
func (t *Toggle) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}
