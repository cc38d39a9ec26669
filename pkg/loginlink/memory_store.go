package loginlink

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ownerKind struct {
	owner uuid.UUID
	kind  Kind
}

// MemoryStore keeps links in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	byDigest map[string]Link
	byOwner  map[ownerKind]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byDigest: make(map[string]Link),
		byOwner:  make(map[ownerKind]string),
	}
}

func (m *MemoryStore) Save(ctx context.Context, link Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ownerKind{owner: link.OwnerID, kind: link.Kind}
	if old, ok := m.byOwner[key]; ok {
		delete(m.byDigest, old)
	}
	m.byOwner[key] = link.Digest
	m.byDigest[link.Digest] = link
	return nil
}

func (m *MemoryStore) Find(ctx context.Context, digest string) (Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.byDigest[digest]
	if !ok {
		return Link{}, ErrNotFound
	}
	return link, nil
}

func (m *MemoryStore) Take(ctx context.Context, digest string) (Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.byDigest[digest]
	if !ok {
		return Link{}, ErrNotFound
	}
	m.remove(link)
	return link, nil
}

func (m *MemoryStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, kind := range Kinds {
		key := ownerKind{owner: ownerID, kind: kind}
		if digest, ok := m.byOwner[key]; ok {
			delete(m.byDigest, digest)
			delete(m.byOwner, key)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, link := range m.byDigest {
		if link.ExpiresAt.Before(before) {
			m.remove(link)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) List(ctx context.Context, ownerIDs ...uuid.UUID) ([]Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	links := make([]Link, 0, len(m.byDigest))
	for _, link := range m.byDigest {
		if len(ownerIDs) == 0 || slices.Contains(ownerIDs, link.OwnerID) {
			links = append(links, link)
		}
	}
	sortLinks(links)
	return links, nil
}

// remove deletes link from both indexes. Callers hold mu.
func (m *MemoryStore) remove(link Link) {
	delete(m.byDigest, link.Digest)
	key := ownerKind{owner: link.OwnerID, kind: link.Kind}
	if m.byOwner[key] == link.Digest {
		delete(m.byOwner, key)
	}
}

// sortLinks orders by issue time, newest first, then by owner for stable output.
func sortLinks(links []Link) {
	slices.SortFunc(links, func(a, b Link) int {
		if c := b.IssuedAt.Compare(a.IssuedAt); c != 0 {
			return c
		}
		if c := slices.Compare(a.OwnerID[:], b.OwnerID[:]); c != 0 {
			return c
		}
		return slices.Compare([]byte(a.Kind), []byte(b.Kind))
	})
}
