package flight

import (
	"sync"
	"time"
)

// Cache memoizes successful results of an expensive function by key, holding
// each entry for a bounded TTL. Concurrent calls for the same key share one
// execution of the work function. Failed work is never cached, so a later
// call for the same key retries.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	finished map[K]entry[V]
	pending  map[K]*job[V]

	work func(K) (V, error)
	ttl  time.Duration
	now  func() time.Time
}

type entry[V any] struct {
	val      V
	deadline time.Time // zero => never expires
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](work func(K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{
		finished: make(map[K]entry[V]),
		pending:  make(map[K]*job[V]),
		work:     work,
		ttl:      time.Hour,
		now:      time.Now,
	}
}

// Expiry sets the TTL for future writes. d <= 0 means entries never expire.
func (c *Cache[K, V]) Expiry(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		c.ttl = 0
		return
	}
	c.ttl = d
}

// Get returns the cached value for k, joins an in-flight computation for k,
// or runs the work function and caches the result.
func (c *Cache[K, V]) Get(k K) (V, error) {
	c.mu.Lock()

	if e, ok := c.finished[k]; ok {
		if e.deadline.IsZero() || c.now().Before(e.deadline) {
			c.mu.Unlock()
			return e.val, nil
		}
		delete(c.finished, k)
	}

	if pending, ok := c.pending[k]; ok {
		c.mu.Unlock()
		<-pending.done
		return pending.val, pending.err
	}

	j := &job[V]{done: make(chan struct{})}
	c.pending[k] = j
	c.mu.Unlock()

	j.val, j.err = c.work(k)

	c.mu.Lock()
	if j.err == nil {
		c.finished[k] = c.newEntry(j.val)
	}
	close(j.done)
	delete(c.pending, k)
	c.mu.Unlock()

	return j.val, j.err
}

// Force recomputes k even when a fresh entry exists, waiting out any
// in-flight computation first so at most one runs at a time.
func (c *Cache[K, V]) Force(k K) (V, error) {
	var j *job[V]
	for {
		c.mu.Lock()
		if existing, ok := c.pending[k]; ok {
			c.mu.Unlock()
			<-existing.done
			continue
		}
		j = &job[V]{done: make(chan struct{})}
		c.pending[k] = j
		c.mu.Unlock()
		break
	}

	j.val, j.err = c.work(k)

	c.mu.Lock()
	if j.err == nil {
		c.finished[k] = c.newEntry(j.val)
	}
	close(j.done)
	delete(c.pending, k)
	c.mu.Unlock()

	return j.val, j.err
}

// Len reports the number of stored entries, expired ones included until
// their next lookup evicts them.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.finished)
}

func (c *Cache[K, V]) newEntry(val V) entry[V] {
	e := entry[V]{val: val}
	if c.ttl > 0 {
		e.deadline = c.now().Add(c.ttl)
	}
	return e
}
