package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemorySize bounds the in-memory provider when no size is given.
const DefaultMemorySize = 256

// MemoryProvider implements Provider with a size-bounded LRU whose entries
// expire after a provider-wide TTL. Per-call ttl arguments are ignored.
type MemoryProvider struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, []byte]
}

// NewMemoryProvider creates an in-process cache holding at most size entries
// for ttl each. A zero ttl keeps entries until evicted.
func NewMemoryProvider(size int, ttl time.Duration) (*MemoryProvider, error) {
	if size < 0 {
		return nil, errors.New("cache size must not be negative")
	}
	if size == 0 {
		size = DefaultMemorySize
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryProvider{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}, nil
}

// Get returns a copy of the cached bytes or ErrCacheMiss.
func (p *MemoryProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := p.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value under key.
func (p *MemoryProvider) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// SetNX stores value only when key is absent and reports whether it did.
func (p *MemoryProvider) SetNX(ctx context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lru.Contains(key) {
		return false, nil
	}
	p.lru.Add(key, append([]byte(nil), value...))
	return true, nil
}

// Del removes key.
func (p *MemoryProvider) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.lru.Remove(key)
	return nil
}

// Len reports the number of live entries.
func (p *MemoryProvider) Len() int {
	return p.lru.Len()
}

// Close drops every entry.
func (p *MemoryProvider) Close() error {
	p.lru.Purge()
	return nil
}
