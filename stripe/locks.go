package stripe

import (
	"sync"
)

// keyLock is the mutex of one key and the number of callers holding or
// waiting for it.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// LockManager manages per-key locks so that check-then-create workflows on the
// same key (an email, a price key) run one at a time within this process,
// while workflows on different keys run in parallel. It does not protect
// against other processes using the same Stripe account.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*keyLock)}
}

// Lock acquires the lock for the given key.
// Returns a function that must be called to release the lock
func (lm *LockManager) Lock(key string) func() {
	lm.mu.Lock()
	lock, ok := lm.locks[key]
	if !ok {
		lock = &keyLock{}
		lm.locks[key] = lock
	}
	// the reference is taken before waiting, so cleanup keeps the entry
	lock.refs++
	lm.mu.Unlock()

	lock.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()
			lm.mu.Lock()
			lock.refs--
			lm.mu.Unlock()
		})
	}
}

// CleanupLocks removes the locks that nobody holds or waits for. It can be
// called periodically to bound the memory used by keys that are no longer
// active.
func (lm *LockManager) CleanupLocks() {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for key, lock := range lm.locks {
		if lock.refs == 0 {
			delete(lm.locks, key)
		}
	}
}

// size returns the number of tracked keys.
func (lm *LockManager) size() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}
