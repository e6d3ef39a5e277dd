// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// Memory is a thread-safe in-process cache: a map plus a doubly-linked
// recency list. Entries expire individually by TTL and are evicted
// least-recently-read first once the map exceeds capacity. Recency is
// updated on successful Get, not on creation, so a touched old entry
// outlives an untouched newer one.
type Memory struct {
	capacity int

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
	stats   Stats
}

type entry struct {
	key       string
	records   []types.MergedRecord
	createdAt time.Time
	ttl       time.Duration
	prev      *entry
	next      *entry
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) >= e.ttl
}

// NewMemory creates a memory cache bounded to capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 256
	}
	return &Memory{
		capacity: capacity,
		entries:  make(map[string]*entry),
	}
}

// Get returns the fresh entry for key, refreshing its recency. An
// expired entry is lazily removed and reported as a miss.
func (m *Memory) Get(_ context.Context, key string) ([]types.MergedRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		m.stats.Misses++
		return nil, false, nil
	}
	if e.expired(clock.Now()) {
		m.remove(e)
		delete(m.entries, key)
		m.stats.Expirations++
		m.stats.Misses++
		return nil, false, nil
	}

	m.moveToFront(e)
	m.stats.Hits++
	return e.records, true, nil
}

// Put stores records under key, replacing any existing entry
// (last-writer-wins) and evicting from the least-recently-read end
// while over capacity.
func (m *Memory) Put(_ context.Context, key string, records []types.MergedRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := clock.Now()
	if e, ok := m.entries[key]; ok {
		e.records = records
		e.createdAt = now
		e.ttl = ttl
		m.moveToFront(e)
		return nil
	}

	e := &entry{key: key, records: records, createdAt: now, ttl: ttl}
	m.entries[key] = e
	m.addToFront(e)

	for len(m.entries) > m.capacity {
		m.evictTail()
	}
	return nil
}

// Invalidate removes the entry for key if present.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		m.remove(e)
		delete(m.entries, key)
	}
	return nil
}

// Stats returns a snapshot of the cumulative counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Len reports the current entry count.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// --- recency list ---

func (m *Memory) moveToFront(e *entry) {
	if e == m.head {
		return
	}
	m.remove(e)
	m.addToFront(e)
}

func (m *Memory) addToFront(e *entry) {
	e.next = m.head
	e.prev = nil
	if m.head != nil {
		m.head.prev = e
	}
	m.head = e
	if m.tail == nil {
		m.tail = e
	}
}

func (m *Memory) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		m.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		m.tail = e.prev
	}
}

func (m *Memory) evictTail() {
	if m.tail == nil {
		return
	}
	delete(m.entries, m.tail.key)
	m.remove(m.tail)
	m.stats.Evictions++
}
