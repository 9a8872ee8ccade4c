// Package dialogue tracks per-user conversation state and drives the
// multi-turn "create task" exchange.
package dialogue

import (
	"sync"
	"time"
)

// Phase is the current step of a user's dialogue.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingTitle
	PhaseAwaitingDescription
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingTitle:
		return "awaiting_title"
	case PhaseAwaitingDescription:
		return "awaiting_description"
	default:
		return "unknown"
	}
}

// State is one user's conversation state. PendingTaskID is non-zero exactly
// when Phase is PhaseAwaitingDescription.
type State struct {
	Phase         Phase
	PendingTaskID int64
}

// Valid reports whether the pending task invariant holds.
func (s State) Valid() bool {
	if s.Phase == PhaseAwaitingDescription {
		return s.PendingTaskID > 0
	}
	return s.PendingTaskID == 0
}

type entry struct {
	mu      sync.Mutex
	state   State
	touched time.Time
	refs    int // guarded by Registry.mu
}

// Registry holds volatile conversation state keyed by user ID. Entries are
// created on first use and dropped once they return to idle; nothing is
// persisted, so a restart puts everyone back to idle.
type Registry struct {
	mu      sync.Mutex
	entries map[int64]*entry
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[int64]*entry),
		now:     time.Now,
	}
}

func (r *Registry) acquire(userID int64) *entry {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = &entry{touched: r.now()}
		r.entries[userID] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()
	return e
}

func (r *Registry) release(userID int64, e *entry) {
	e.touched = r.now()
	idle := e.state.Phase == PhaseIdle

	// e.mu is still held: anyone waiting on it holds a ref, so an entry
	// with zero refs cannot be mid-update.
	r.mu.Lock()
	e.refs--
	if e.refs == 0 && idle {
		delete(r.entries, userID)
	}
	r.mu.Unlock()

	e.mu.Unlock()
}

// With runs fn with exclusive access to the user's state. Calls for the
// same user are serialized; calls for different users run in parallel.
func (r *Registry) With(userID int64, fn func(st *State)) {
	e := r.acquire(userID)
	defer r.release(userID, e)
	fn(&e.state)
}

// Get returns a snapshot of the user's state.
func (r *Registry) Get(userID int64) State {
	var st State
	r.With(userID, func(s *State) { st = *s })
	return st
}

// Reset puts the user back to idle.
func (r *Registry) Reset(userID int64) {
	r.With(userID, func(s *State) { *s = State{} })
}

// Len returns the number of users with a dialogue in progress.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops dialogues that have not been touched for longer than maxIdle,
// returning their users to idle. It returns the number of dialogues dropped.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for userID, e := range r.entries {
		// refs == 0 means nobody holds or waits on e.mu.
		if e.refs > 0 || !e.touched.Before(cutoff) {
			continue
		}
		delete(r.entries, userID)
		dropped++
	}
	return dropped
}
