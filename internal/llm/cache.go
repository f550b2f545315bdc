package llm

import (
	"sync"
	"time"
)

// cacheEntry represents a cached classification answer.
type cacheEntry struct {
	expiry time.Time
	answer Answer
}

// answerCache provides thread-safe caching for classification answers,
// keyed by the merchant snippet. Repeated charges from the same merchant
// never pay for a second external call within the TTL.
type answerCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newAnswerCache creates a new cache with the specified TTL.
func newAnswerCache(ttl time.Duration) *answerCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &answerCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// get retrieves an answer from the cache if it exists and hasn't expired.
func (c *answerCache) get(key string) (Answer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return Answer{}, false
	}

	if time.Now().After(entry.expiry) {
		return Answer{}, false
	}

	return entry.answer, true
}

// set stores an answer in the cache.
func (c *answerCache) set(key string, answer Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		answer: answer,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *answerCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *answerCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *answerCache) Close() {
	close(c.stopCh)
}
