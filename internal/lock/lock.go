// Package lock provides per-key mutual exclusion with a bounded acquisition
// wait. The credit ledger serializes its read-normalize-write cycle behind a
// per-user lock obtained from a Locker, injected so tests and alternative
// deployments can swap the provider.
//
// The in-process implementation keeps one semaphore per active key in a map,
// reference-counted so idle entries are removed as soon as nobody holds or
// waits on them. It is process-local: a horizontally scaled deployment needs
// a distributed provider behind the same interface.
package lock

import (
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned when the lock could not be acquired within the
// caller's wait bound. It is a recoverable condition: another invocation
// holds the lock, and the caller should surface "try again shortly".
var ErrTimeout = errors.New("lock acquisition timed out")

// Locker grants exclusive access per key with a bounded wait.
type Locker interface {
	// Acquire blocks up to wait for the key's lock. On success it returns a
	// release function that must be called exactly once, typically deferred.
	// On timeout it returns ErrTimeout.
	Acquire(key string, wait time.Duration) (release func(), err error)
}

// entry is one key's semaphore plus a count of holders and waiters.
type entry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex is the in-process Locker implementation.
// The zero value is not usable; construct with NewKeyedMutex.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewKeyedMutex returns an empty in-process lock provider.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Acquire implements Locker.
func (k *KeyedMutex) Acquire(key string, wait time.Duration) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				k.put(key, e)
			})
		}, nil
	case <-timer.C:
		k.put(key, e)
		return nil, ErrTimeout
	}
}

// put drops one reference and evicts the entry when nobody uses it.
func (k *KeyedMutex) put(key string, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}
