package token

import (
	"sync"
	"time"
)

// Revocations remembers token IDs that must be rejected before their expiry, such as the token of a
// deleted account.
type Revocations interface {
	Revoke(id string, until time.Time) error
	Revoked(id string) bool
	Prune(now time.Time)
}

var _ Revocations = (*MemoryRevocations)(nil)

// MemoryRevocations holds revoked IDs until the token would have expired anyway.
type MemoryRevocations struct {
	lock  sync.RWMutex
	until map[string]time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{until: make(map[string]time.Time)}
}

func (r *MemoryRevocations) Revoke(id string, until time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.until[id] = until
	return nil
}

func (r *MemoryRevocations) Revoked(id string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.until[id]
	return ok
}

// Prune forgets IDs whose tokens have expired by now; Verify rejects those on expiry alone.
func (r *MemoryRevocations) Prune(now time.Time) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for id, until := range r.until {
		if now.After(until) {
			delete(r.until, id)
		}
	}
}

// Len is the number of IDs currently held.
func (r *MemoryRevocations) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.until)
}
