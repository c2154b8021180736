// Package lock provides the mutual exclusion used around read-modify-write
// cycles on the photo index
package lock

import (
	"context"
	"sync"
)

// Locker hands out exclusive, context aware locks by name. The returned
// function releases the lock and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, name string) (func(), error)
}

// Local serializes holders within a single process
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{
		slots: make(map[string]chan struct{}),
	}
}

func (l *Local) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[name]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[name] = s
	}

	return s
}

func (l *Local) Lock(ctx context.Context, name string) (func(), error) {
	s := l.slot(name)

	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
