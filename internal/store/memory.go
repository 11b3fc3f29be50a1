package store

import (
	"context"
	"sync"

	"github.com/serroba/trusted-shortener/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
// Records are copied on the way in and out so callers never share state.
type MemoryStore struct {
	mu      sync.RWMutex
	urls    map[shortener.Hash]shortener.ShortURL
	targets map[string]shortener.Hash // target -> hash
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		urls:    make(map[shortener.Hash]shortener.ShortURL),
		targets: make(map[string]shortener.Hash),
	}
}

func (m *MemoryStore) Save(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.urls[shortURL.Hash] = clone(shortURL)
	m.targets[shortURL.Target] = shortURL.Hash

	return nil
}

func (m *MemoryStore) GetByHash(_ context.Context, hash shortener.Hash) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url, ok := m.urls[hash]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	out := clone(&url)

	return &out, nil
}

func (m *MemoryStore) GetByTarget(_ context.Context, target string) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hash, ok := m.targets[target]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	url := m.urls[hash]
	out := clone(&url)

	return &out, nil
}

func clone(src *shortener.ShortURL) shortener.ShortURL {
	dst := *src
	dst.Properties.Safe = copyPtr(src.Properties.Safe)
	dst.Properties.Reachable = copyPtr(src.Properties.Reachable)
	dst.Properties.RedirectionLimit = copyPtr(src.Properties.RedirectionLimit)

	return dst
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
