// Package keylock serializes work per key without a global lock.
package keylock

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "gametune/internal/platform/errors"
)

const DefaultTimeout = 2 * time.Second

type entry struct {
	sem  chan struct{}
	refs int
}

// Locker hands out one mutex per key. Entries are reference counted and
// dropped once nobody holds or waits on them.
type Locker struct {
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

func New(timeout time.Duration) *Locker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Locker{timeout: timeout, entries: map[string]*entry{}}
}

// Lock blocks until key is free, ctx is done, or the lock timeout elapses.
// A timeout is reported as apperrors.ErrConflict.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquire(key)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	case <-timer.C:
		l.release(key, e)
		return nil, fmt.Errorf("lock %s after %s: %w", key, l.timeout, apperrors.ErrConflict)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

// Size reports how many keys currently have holders or waiters.
func (l *Locker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Locker) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
