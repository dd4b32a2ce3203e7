// Package viewstate keeps per-session component state in memory.
package viewstate

import (
	"context"
	"sync"
	"time"
)

type entry[S any] struct {
	state *S
	seen  time.Time
}

// Registry maps a session id to one component's state. Each feature package
// owns its own Registry, so components never share state.
type Registry[S any] struct {
	mu      sync.Mutex
	entries map[string]*entry[S]
	newFn   func() *S
	ttl     time.Duration
	now     func() time.Time
	onEvict func(*S)
}

// New creates a registry whose states are built by newFn and dropped after
// ttl without use. A zero ttl keeps states until Drop.
func New[S any](ttl time.Duration, newFn func() *S) *Registry[S] {
	return &Registry[S]{
		entries: map[string]*entry[S]{},
		newFn:   newFn,
		ttl:     ttl,
		now:     time.Now,
	}
}

// OnEvict registers a hook run for every state removed by Drop or Sweep.
func (r *Registry[S]) OnEvict(fn func(*S)) { r.onEvict = fn }

// Get returns the session's state, creating it on first use.
func (r *Registry[S]) Get(session string) *S {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[session]
	if !ok {
		e = &entry[S]{state: r.newFn()}
		r.entries[session] = e
	}
	e.seen = r.now()
	return e.state
}

// Peek returns the state without creating it.
func (r *Registry[S]) Peek(session string) (*S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[session]
	if !ok {
		return nil, false
	}
	return e.state, true
}

// Drop forgets a session (logout).
func (r *Registry[S]) Drop(session string) {
	r.mu.Lock()
	e, ok := r.entries[session]
	delete(r.entries, session)
	r.mu.Unlock()
	if ok && r.onEvict != nil {
		r.onEvict(e.state)
	}
}

// Sweep drops every state idle for longer than the ttl and returns how many went.
func (r *Registry[S]) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)
	var evicted []*S
	r.mu.Lock()
	for k, e := range r.entries {
		if e.seen.Before(cutoff) {
			evicted = append(evicted, e.state)
			delete(r.entries, k)
		}
	}
	r.mu.Unlock()
	if r.onEvict != nil {
		for _, s := range evicted {
			r.onEvict(s)
		}
	}
	return len(evicted)
}

// Sweeper is anything with idle state to reclaim.
type Sweeper interface {
	Sweep() int
}

// Dropper is anything holding per-session state.
type Dropper interface {
	Drop(session string)
}

// Store is a registry seen from the outside: it can be swept and dropped.
type Store interface {
	Sweeper
	Dropper
}

// RunSweeper sweeps every registry on each tick until ctx is done.
func RunSweeper(ctx context.Context, every time.Duration, regs ...Store) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, r := range regs {
				r.Sweep()
			}
		}
	}
}
