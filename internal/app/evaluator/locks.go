package evaluator

import "sync"

// nameLocks serializes evaluations that would overwrite the same
// materialized source file without ever blocking unrelated entry points.
// Entries are refcounted so the map cannot grow with names no longer in
// flight.
type nameLocks struct {
	mu    sync.Mutex
	inUse map[string]*nameLock
}

type nameLock struct {
	mu   sync.Mutex
	refs int
}

func newNameLocks() *nameLocks {
	return &nameLocks{inUse: make(map[string]*nameLock)}
}

// acquire blocks until the lock for key is held and returns its release
// function.
func (l *nameLocks) acquire(key string) func() {
	l.mu.Lock()
	entry, ok := l.inUse[key]
	if !ok {
		entry = &nameLock{}
		l.inUse[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.inUse, key)
		}
		l.mu.Unlock()
	}
}
