package service

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/juridia/legal-assistant-be/types"
)

// ConversationState is the cached working set of an active conversation.
type ConversationState struct {
	ID       string
	Title    string
	Category string
	History  []types.Message
}

type cacheEntry struct {
	id      string
	state   *ConversationState
	touched time.Time
}

// ConversationCache is a bounded LRU store with TTL eviction for active
// conversation state. Eviction only forces the next access to reload from
// durable storage; the cache is never the source of truth.
//
// Requests for different conversations never block each other beyond the short
// critical sections here; mutations of the same conversation are serialized
// through LockConversation.
type ConversationCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]*list.Element
	order    *list.List // front = most recently used

	keys keyedMutex
}

func NewConversationCache(capacity int, ttl time.Duration) *ConversationCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &ConversationCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		keys:     keyedMutex{locks: make(map[string]*keyLock)},
	}
}

// SetClock replaces the time source, for tests.
func (c *ConversationCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// LockConversation serializes work on one conversation id. It returns the
// unlock function. Different ids proceed in parallel.
func (c *ConversationCache) LockConversation(id string) func() {
	return c.keys.lock(id)
}

// Get returns the cached state and refreshes its recency. An entry idle for
// longer than the TTL is discarded on access.
func (c *ConversationCache) Get(id string) (*ConversationState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.expired(entry) {
		c.removeLocked(elem)
		return nil, false
	}
	entry.touched = c.now()
	c.order.MoveToFront(elem)
	return entry.state, true
}

// Put inserts or replaces the state for id. Insertion beyond capacity evicts
// the least-recently-used entry.
func (c *ConversationCache) Put(id string, state *ConversationState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[id]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.state = state
		entry.touched = c.now()
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{id: id, state: state, touched: c.now()})
	c.entries[id] = elem

	for c.order.Len() > c.capacity {
		c.removeLocked(c.order.Back())
	}
}

// Touch refreshes the recency of id without reading it.
func (c *ConversationCache) Touch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[id]; ok {
		elem.Value.(*cacheEntry).touched = c.now()
		c.order.MoveToFront(elem)
	}
}

// Delete drops id from the cache. The durable copy is untouched.
func (c *ConversationCache) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[id]
	if !ok {
		return false
	}
	c.removeLocked(elem)
	return true
}

// Len returns the current entry count.
func (c *ConversationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *ConversationCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*cacheEntry)) {
			c.removeLocked(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Run sweeps periodically until ctx is cancelled.
func (c *ConversationCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

func (c *ConversationCache) expired(entry *cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.touched) > c.ttl
}

func (c *ConversationCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.id)
}

// keyedMutex hands out one mutex per key, reference-counted so idle keys do
// not accumulate.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id string) func() {
	k.mu.Lock()
	kl, ok := k.locks[id]
	if !ok {
		kl = &keyLock{}
		k.locks[id] = kl
	}
	kl.refs++
	k.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		k.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
