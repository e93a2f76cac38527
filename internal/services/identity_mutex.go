package services

import "sync"

// identityMutex provides per-identity mutual exclusion. Two concurrent checks
// for the same identity serialize; checks for different identities do not
// contend. Mutex entries are kept for the lifetime of the process, matching
// the unbounded growth of the state they guard.
type identityMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newIdentityMutex() *identityMutex {
	return &identityMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for an identity and returns its unlock function.
func (m *identityMutex) Lock(identity string) func() {
	m.mu.Lock()
	lock, ok := m.locks[identity]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[identity] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
