package cache

import (
	"context"
	"sync"
	"time"

	"hwocr/pkg/models"
)

type memoryEntry struct {
	result   *models.ExtractionResult
	storedAt time.Time
}

// Memory is an in-process Store bounded by entry count and age. When full it
// evicts the oldest entry; expired entries are dropped on read.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewMemory creates a memory store holding at most maxEntries results for at
// most ttl each. A ttl of 0 disables expiry.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the stored result for key, dropping it when expired.
func (m *Memory) Get(_ context.Context, key string) (*models.ExtractionResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.ttl > 0 && m.now().Sub(entry.storedAt) > m.ttl {
		delete(m.entries, key)
		return nil, false, nil
	}
	return entry.result, true, nil
}

// Set stores a result, evicting the oldest entry when at capacity.
func (m *Memory) Set(_ context.Context, key string, result *models.ExtractionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldestLocked()
	}
	m.entries[key] = memoryEntry{result: result, storedAt: m.now()}
	return nil
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range m.entries {
		if first || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
