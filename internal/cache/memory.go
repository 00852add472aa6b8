package cache

import (
	"bytes"
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	defaultCapacity   = 1000
	defaultEvictBatch = 200
)

// MemoryOpts configures a [MemoryStore].
type MemoryOpts struct {
	Capacity   int              // entries kept before eviction kicks in (default: 1000)
	EvictBatch int              // oldest entries dropped per eviction (default: 200)
	Clock      func() time.Time // defaults to time.Now
	OnEvict    func(n int)      // optional eviction hook, called outside the lock
}

type entry struct {
	key        string
	value      []byte
	insertedAt time.Time
	ttl        time.Duration
}

func (e *entry) live(now time.Time) bool {
	return now.Sub(e.insertedAt) < e.ttl
}

// MemoryStore is a bounded in-process [Store].
//
// Entries are kept in insertion order. Overwriting a key refreshes its value and expiry but not its position.
// When a Set pushes the store past capacity, the EvictBatch oldest entries are dropped regardless of use;
// this is not an LRU. Expired entries are reclaimed lazily when read.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	capacity   int
	evictBatch int
	now        func() time.Time
	onEvict    func(int)
}

// NewMemoryStore creates a [MemoryStore], filling zero options with defaults.
func NewMemoryStore(opts MemoryOpts) *MemoryStore {
	if opts.Capacity <= 0 {
		opts.Capacity = defaultCapacity
	}
	if opts.EvictBatch <= 0 {
		opts.EvictBatch = defaultEvictBatch
	}
	if opts.EvictBatch > opts.Capacity {
		opts.EvictBatch = opts.Capacity
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &MemoryStore{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		capacity:   opts.Capacity,
		evictBatch: opts.EvictBatch,
		now:        opts.Clock,
		onEvict:    opts.OnEvict,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

// Get returns a copy of the live value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	e := el.Value.(*entry)
	if !e.live(m.now()) {
		m.removeElement(el)
		return nil, false, nil
	}
	return bytes.Clone(e.value), true, nil
}

// Set stores a copy of value under key for ttl.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()

	now := m.now()
	if el, ok := m.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = bytes.Clone(value)
		e.insertedAt = now
		e.ttl = ttl
		m.mu.Unlock()
		return nil
	}

	m.entries[key] = m.order.PushBack(&entry{key: key, value: bytes.Clone(value), insertedAt: now, ttl: ttl})

	evicted := 0
	if m.order.Len() > m.capacity {
		for evicted < m.evictBatch {
			front := m.order.Front()
			if front == nil {
				break
			}
			m.removeElement(front)
			evicted++
		}
	}
	m.mu.Unlock()

	if evicted > 0 && m.onEvict != nil {
		m.onEvict(evicted)
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		m.removeElement(el)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// removeElement must be called with mu held.
func (m *MemoryStore) removeElement(el *list.Element) {
	e := m.order.Remove(el).(*entry)
	delete(m.entries, e.key)
}
