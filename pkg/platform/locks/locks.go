// Package locks provides per-key mutual exclusion. The registry uses one
// shared Keyed instance to order all externally visible operations on the
// same asset: a lock is held for the whole operation, so no call ever
// observes a partially applied state of another call on that asset.
// Operations on distinct assets proceed independently.
package locks

import "sync"

// Keyed is a set of mutexes addressed by key. The zero value is not usable;
// construct with NewKeyed.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, creating it on first use. Entries are
// reference counted and dropped when the last holder unlocks, so the map does
// not grow with the asset space.
func (k *Keyed) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Unlocking a key that is not held panics,
// matching sync.Mutex semantics.
func (k *Keyed) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("locks: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
