package service

import (
	"sync"

	"github.com/google/uuid"
)

// timerKey identifies a user's timer slot within a workspace
type timerKey struct {
	userID      uuid.UUID
	workspaceID int32
}

// keyedLock serializes timer operations per (user, workspace) key while
// letting distinct keys proceed in parallel. Entries are reference-counted
// and removed once the last holder releases, so the map does not grow with
// the number of users ever seen.
type keyedLock struct {
	mu    sync.Mutex
	locks map[timerKey]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{
		locks: make(map[timerKey]*lockEntry),
	}
}

// Lock acquires the mutex for the given key, creating it on first use
func (k *keyedLock) Lock(key timerKey) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the mutex for the given key and drops the entry when no
// other goroutine is waiting on it
func (k *keyedLock) Unlock(key timerKey) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
	}
	k.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
