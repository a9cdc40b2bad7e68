package booking

import (
    "context"
    "sync"
)

// keyedMutex hands out one exclusive lock per schedule id.  Entries are
// reference counted and dropped once nobody holds or waits on them, so
// the map only grows with the number of schedules in flight.
type keyedMutex struct {
    mu      sync.Mutex
    entries map[uint64]*lockEntry
}

type lockEntry struct {
    sem  chan struct{}
    refs int
}

func newKeyedMutex() *keyedMutex {
    return &keyedMutex{entries: make(map[uint64]*lockEntry)}
}

// Lock blocks until the lock for key is acquired or ctx is done.  The
// returned func releases it.
func (k *keyedMutex) Lock(ctx context.Context, key uint64) (func(), error) {
    k.mu.Lock()
    e, ok := k.entries[key]
    if !ok {
        e = &lockEntry{sem: make(chan struct{}, 1)}
        k.entries[key] = e
    }
    e.refs++
    k.mu.Unlock()

    select {
    case e.sem <- struct{}{}:
    case <-ctx.Done():
        k.drop(key, e)
        return nil, ctx.Err()
    }
    var once sync.Once
    return func() {
        once.Do(func() {
            <-e.sem
            k.drop(key, e)
        })
    }, nil
}

func (k *keyedMutex) drop(key uint64, e *lockEntry) {
    k.mu.Lock()
    e.refs--
    if e.refs == 0 {
        delete(k.entries, key)
    }
    k.mu.Unlock()
}

// size returns the number of live entries.
func (k *keyedMutex) size() int {
    k.mu.Lock()
    defer k.mu.Unlock()
    return len(k.entries)
}
