package mock

import (
	"context"
	"sync"
	"time"

	"github.com/purrpal/purrpal/internal/cache"
)

// MemoryCache is an in-process cache.Cache for tests. Expiry is checked
// lazily on read. Err, when set, is returned by every operation.
type MemoryCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	lists   map[string][][]byte
	counts  map[string]int64
	expires map[string]time.Time
	now     func() time.Time

	Err error
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values:  make(map[string][]byte),
		lists:   make(map[string][][]byte),
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Advance moves the cache clock forward.
func (m *MemoryCache) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := m.now()
	m.now = func() time.Time { return base.Add(d) }
}

func (m *MemoryCache) expired(key string) bool {
	exp, ok := m.expires[key]
	if ok && !m.now().Before(exp) {
		delete(m.values, key)
		delete(m.lists, key)
		delete(m.counts, key)
		delete(m.expires, key)
		return true
	}
	return false
}

func (m *MemoryCache) setTTL(key string, ttl time.Duration) {
	if ttl > 0 {
		m.expires[key] = m.now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.values[key] = append([]byte(nil), value...)
	m.setTTL(key, ttl)
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	if m.expired(key) {
		return nil, false, nil
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.values, key)
	delete(m.lists, key)
	delete(m.counts, key)
	delete(m.expires, key)
	return nil
}

func (m *MemoryCache) Ping(_ context.Context) error {
	return m.Err
}

func (m *MemoryCache) IncrWithExpiry(_ context.Context, key string, expiry time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.expired(key)
	m.counts[key]++
	m.setTTL(key, expiry)
	return m.counts[key], nil
}

func (m *MemoryCache) AppendCapped(_ context.Context, key string, value []byte, maxLen int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.expired(key)
	list := append(m.lists[key], append([]byte(nil), value...))
	if maxLen > 0 && int64(len(list)) > maxLen {
		list = list[int64(len(list))-maxLen:]
	}
	m.lists[key] = list
	m.setTTL(key, ttl)
	return nil
}

func (m *MemoryCache) ListAll(_ context.Context, key string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.expired(key) {
		return nil, nil
	}
	return append([][]byte(nil), m.lists[key]...), nil
}

var _ cache.Cache = (*MemoryCache)(nil)
