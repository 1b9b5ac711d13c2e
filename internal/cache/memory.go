package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryBackend is an LRU-with-cap Backend suitable for tests and
// dev, per spec.md §4.3: "A memory backend suitable for tests/dev
// MUST support a maximum-entry cap."
type MemoryBackend struct {
	mu       sync.Mutex
	cap      int
	ll       *list.List
	index    map[string]*list.Element
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryBackend returns an in-memory Backend capped at maxEntries
// (values <= 0 default to 10000).
func NewMemoryBackend(maxEntries int) *MemoryBackend {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryBackend{
		cap:   maxEntries,
		ll:    list.New(),
		index: make(map[string]*list.Element),
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.index[key]
	if !ok {
		return nil, false, nil
	}
	entry := el.Value.(*memoryEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.ll.Remove(el)
		delete(m.index, key)
		return nil, false, nil
	}
	m.ll.MoveToFront(el)
	return entry.value, true, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if el, ok := m.index[key]; ok {
		el.Value.(*memoryEntry).value = value
		el.Value.(*memoryEntry).expiresAt = expiresAt
		m.ll.MoveToFront(el)
		return nil
	}

	el := m.ll.PushFront(&memoryEntry{key: key, value: value, expiresAt: expiresAt})
	m.index[key] = el

	for m.ll.Len() > m.cap {
		oldest := m.ll.Back()
		if oldest == nil {
			break
		}
		m.ll.Remove(oldest)
		delete(m.index, oldest.Value.(*memoryEntry).key)
	}
	return nil
}

func (m *MemoryBackend) Ping(_ context.Context) bool { return true }

func (m *MemoryBackend) Close() error { return nil }
