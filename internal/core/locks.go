package core

import "sync"

// habitatLocks hands out one exclusive lock per habitat id. Entries are
// reference counted and dropped once no caller holds or waits on them.
type habitatLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newHabitatLocks() *habitatLocks {
	return &habitatLocks{locks: make(map[string]*refLock)}
}

// lock blocks until the habitat lock is held and returns its release func.
// Callers must never hold two habitat locks at once.
func (l *habitatLocks) lock(habitatID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[habitatID]
	if !ok {
		entry = &refLock{}
		l.locks[habitatID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, habitatID)
		}
		l.mu.Unlock()
	}
}

func (l *habitatLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
