// Package store persists the catalog and shopping list as JSON collections
// in a key-value store.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/swamy3697/Shop-Mate/internal/kv"
	"github.com/swamy3697/Shop-Mate/internal/model"
)

// Store errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrStorageRead  = errors.New("storage read failed")
	ErrStorageWrite = errors.New("storage write failed")
)

// Keys of the documents kept in the key-value store.
const (
	ItemsKey     = "@items"
	ShopListKey  = "@shopList"
	AccountKey   = "@account"
	JWTSecretKey = "@jwtSecret"
)

// Store gives access to the collections kept in one key-value store.
// Collections obtained from the same Store share per-key locks.
type Store struct {
	kv    kv.Store
	locks *keyLocks
	now   func() time.Time
}

// New returns a Store over s.
func New(s kv.Store) *Store {
	return &Store{
		kv:    s,
		locks: newKeyLocks(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Catalog returns the catalog item collection.
func (s *Store) Catalog() *Catalog {
	return &Catalog{
		items: newCollection(s, ItemsKey, func(i model.Item) string { return i.ID }),
		now:   s.now,
	}
}

// ShopList returns the shopping-list collection.
func (s *Store) ShopList() *ShopList {
	return &ShopList{
		entries: newCollection(s, ShopListKey, func(e model.ShopListItem) string { return e.ID }),
		now:     s.now,
	}
}

// Reset removes both collections. The account and token secret are kept.
func (s *Store) Reset(ctx context.Context) error {
	for _, key := range []string{ItemsKey, ShopListKey} {
		err := s.locks.with(key, func() error {
			return s.kv.Delete(ctx, key)
		})
		if err != nil {
			return fmt.Errorf("resetting %s: %w: %w", key, ErrStorageWrite, err)
		}
	}
	return nil
}

// keyLocks serializes read-modify-write cycles per key.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

// with runs fn while holding the lock for key.
func (l *keyLocks) with(key string, fn func() error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn()
}

// generateID returns the epoch milliseconds followed by a random number
// below one million. Uniqueness is probabilistic; collisions are not checked.
func generateID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + strconv.Itoa(rand.IntN(1000000))
}

// nextTimestamp returns now, or a moment just after prev when the clock has
// not moved past it, so updatedAt always advances.
func nextTimestamp(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}
