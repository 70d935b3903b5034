package fetch

import (
	"sync"
	"time"
)

// hostEntry stores the preferred fetcher for a host with a TTL.
type hostEntry struct {
	fetcherName string
	expiresAt   time.Time
}

// HostMemory remembers which fetch tier worked for each host, so repeat
// fetches against the same site skip the race. Entries expire after the
// configured TTL and are pruned periodically.
type HostMemory struct {
	store sync.Map // host (string) -> *hostEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewHostMemory creates a HostMemory with the given TTL and starts a
// background goroutine that prunes expired entries every hour.
func NewHostMemory(ttl time.Duration) *HostMemory {
	hm := &HostMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go hm.cleanupLoop()
	return hm
}

// Get returns the remembered fetcher name for a host, or "" if not found
// or expired.
func (hm *HostMemory) Get(host string) string {
	val, ok := hm.store.Load(host)
	if !ok {
		return ""
	}
	entry := val.(*hostEntry)
	if time.Now().After(entry.expiresAt) {
		hm.store.Delete(host)
		return ""
	}
	return entry.fetcherName
}

// Set records which fetcher succeeded for a host.
func (hm *HostMemory) Set(host, fetcherName string) {
	hm.store.Store(host, &hostEntry{
		fetcherName: fetcherName,
		expiresAt:   time.Now().Add(hm.ttl),
	})
}

// Delete removes the memory for a host (e.g. after the remembered fetcher fails).
func (hm *HostMemory) Delete(host string) {
	hm.store.Delete(host)
}

// Stop terminates the background cleanup goroutine.
func (hm *HostMemory) Stop() {
	close(hm.done)
}

func (hm *HostMemory) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-hm.done:
			return
		case <-ticker.C:
			now := time.Now()
			hm.store.Range(func(key, value any) bool {
				entry := value.(*hostEntry)
				if now.After(entry.expiresAt) {
					hm.store.Delete(key)
				}
				return true
			})
		}
	}
}
