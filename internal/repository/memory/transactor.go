package memory

import (
	"context"
	"sync"
)

type scopeLock struct {
	ch   chan struct{}
	refs int
}

// Transactor serialises work per scope with one lock per scope key. Waiting
// for a lock honours ctx. A lock lives only while some caller holds or waits
// for it.
//
// It gives mutual exclusion only, not rollback: writes fn made before
// returning an error stay in the store. Callers must do their single write
// last.
type Transactor struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

func NewTransactor() *Transactor {
	return &Transactor{locks: make(map[string]*scopeLock)}
}

func (t *Transactor) acquire(scope string) *scopeLock {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[scope]
	if !ok {
		l = &scopeLock{ch: make(chan struct{}, 1)}
		t.locks[scope] = l
	}
	l.refs++
	return l
}

func (t *Transactor) release(scope string, l *scopeLock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, scope)
	}
}

func (t *Transactor) RunInScope(ctx context.Context, scope string, fn func(ctx context.Context) error) error {
	l := t.acquire(scope)
	defer t.release(scope, l)

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.ch }()

	return fn(ctx)
}

// scopes reports how many scope locks are live.
func (t *Transactor) scopes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
