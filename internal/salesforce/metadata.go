package salesforce

import (
	"context"
	"sync"
	"time"
)

// Describer is the part of Client the metadata cache needs.
type Describer interface {
	DescribeObject(ctx context.Context, objectType string) (*ObjectMetadata, error)
}

type cachedMetadata struct {
	meta      *ObjectMetadata
	fetchedAt time.Time
}

// MetadataCache memoises describe results per object type. Entries older
// than ttl are refetched; a zero ttl keeps entries until Invalidate.
type MetadataCache struct {
	describer Describer
	ttl       time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]cachedMetadata
}

func NewMetadataCache(describer Describer, ttl time.Duration) *MetadataCache {
	return &MetadataCache{
		describer: describer,
		ttl:       ttl,
		now:       time.Now,
		entries:   make(map[string]cachedMetadata),
	}
}

func (m *MetadataCache) Get(ctx context.Context, objectType string) (*ObjectMetadata, error) {
	m.mu.Lock()
	entry, ok := m.entries[objectType]
	m.mu.Unlock()

	if ok && (m.ttl == 0 || m.now().Sub(entry.fetchedAt) < m.ttl) {
		return entry.meta, nil
	}

	meta, err := m.describer.DescribeObject(ctx, objectType)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[objectType] = cachedMetadata{meta: meta, fetchedAt: m.now()}
	m.mu.Unlock()
	return meta, nil
}

// Invalidate drops objectType, or every entry when objectType is empty.
func (m *MetadataCache) Invalidate(objectType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if objectType == "" {
		m.entries = make(map[string]cachedMetadata)
		return
	}
	delete(m.entries, objectType)
}
