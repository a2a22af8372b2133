package locks

import (
	"strings"
	"sync"
)

// KeyedMutex serialises critical sections per string key. Entries are
// reference-counted and removed once the last holder releases, so the map does
// not grow with the number of distinct keys seen over the process lifetime.
//
// The zero value is ready to use. Locks are process-local: they protect
// check-then-act sequences against concurrent requests on the same instance,
// not against other instances.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the mutex for key, blocking until it is available, and
// returns the matching unlock function. An empty key shares a single slot.
func (k *KeyedMutex) Lock(key string) func() {
	key = strings.TrimSpace(key)

	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*keyedEntry)
	}
	entry, ok := k.entries[key]
	if !ok {
		entry = &keyedEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			k.mu.Lock()
			entry.refs--
			if entry.refs <= 0 {
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
}
