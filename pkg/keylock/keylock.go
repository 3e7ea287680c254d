// Package keylock provides a per-key try-lock to make sure at most one
// operation runs at a time for a given key.
package keylock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Guard is a set of per-key locks. The zero value is not usable, use New.
type Guard struct {
	lock  *sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

func New() *Guard {
	return &Guard{
		lock:  &sync.Mutex{},
		locks: make(map[string]*entry),
	}
}

// TryAcquire locks the key if it's free. It returns the function to release
// the lock and true, or nil and false if the key is already held.
func (g *Guard) TryAcquire(key string) (func(), bool) {
	e := g.ref(key)
	if !e.sem.TryAcquire(1) {
		g.unref(key)
		return nil, false
	}

	once := &sync.Once{}
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			g.unref(key)
		})
	}, true
}

// Acquire waits for the key to be free and locks it.
func (g *Guard) Acquire(ctx context.Context, key string) (func(), error) {
	e := g.ref(key)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		g.unref(key)
		return nil, err
	}

	once := &sync.Once{}
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			g.unref(key)
		})
	}, nil
}

// IsHeld returns whether the key is currently locked.
func (g *Guard) IsHeld(key string) bool {
	g.lock.Lock()
	defer g.lock.Unlock()

	_, ok := g.locks[key]
	return ok
}

func (g *Guard) ref(key string) *entry {
	g.lock.Lock()
	defer g.lock.Unlock()

	e, ok := g.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		g.locks[key] = e
	}
	e.refs++
	return e
}

func (g *Guard) unref(key string) {
	g.lock.Lock()
	defer g.lock.Unlock()

	e, ok := g.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(g.locks, key)
	}
}
