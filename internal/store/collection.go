package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

// Collection is a list of records stored as one JSON array under a fixed key.
// Every mutation reads the whole array, changes it in memory and writes the
// whole array back while holding the key's lock.
type Collection[T any] struct {
	key   string
	store *Store
	id    func(T) string
}

func newCollection[T any](s *Store, key string, id func(T) string) *Collection[T] {
	return &Collection[T]{key: key, store: s, id: id}
}

// Key returns the key the collection is stored under.
func (c *Collection[T]) Key() string {
	return c.key
}

// GetAll returns every record in insertion order. An absent key is an empty
// collection; an unparsable value is an error.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	var records []T
	err := c.withCollectionLock(func() error {
		var err error
		records, err = c.load(ctx)
		return err
	})
	return records, err
}

// Save replaces the whole collection with records.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	return c.withCollectionLock(func() error {
		return c.save(ctx, records)
	})
}

// Find returns the record with the given id.
func (c *Collection[T]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	records, err := c.GetAll(ctx)
	if err != nil {
		return zero, err
	}
	i := slices.IndexFunc(records, func(r T) bool { return c.id(r) == id })
	if i < 0 {
		return zero, fmt.Errorf("finding %s in %s: %w", id, c.key, ErrNotFound)
	}
	return records[i], nil
}

// Append adds rec at the end of the collection.
func (c *Collection[T]) Append(ctx context.Context, rec T) error {
	return c.mutate(ctx, func(records []T) ([]T, error) {
		return append(records, rec), nil
	})
}

// Update applies fn to the record with the given id and returns the result.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T)) (T, error) {
	var updated T
	err := c.mutate(ctx, func(records []T) ([]T, error) {
		i := slices.IndexFunc(records, func(r T) bool { return c.id(r) == id })
		if i < 0 {
			return nil, fmt.Errorf("updating %s in %s: %w", id, c.key, ErrNotFound)
		}
		fn(&records[i])
		updated = records[i]
		return records, nil
	})
	return updated, err
}

// Remove deletes the record with the given id and returns it, or nil when no
// such record exists. Removing an absent id still rewrites the collection.
func (c *Collection[T]) Remove(ctx context.Context, id string) (*T, error) {
	var removed *T
	err := c.mutate(ctx, func(records []T) ([]T, error) {
		kept := make([]T, 0, len(records))
		for _, r := range records {
			if c.id(r) == id {
				removed = &r
				continue
			}
			kept = append(kept, r)
		}
		return kept, nil
	})
	return removed, err
}

// mutate runs one read-modify-write cycle under the collection lock.
func (c *Collection[T]) mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	return c.withCollectionLock(func() error {
		records, err := c.load(ctx)
		if err != nil {
			return err
		}
		records, err = fn(records)
		if err != nil {
			return err
		}
		return c.save(ctx, records)
	})
}

func (c *Collection[T]) withCollectionLock(fn func() error) error {
	return c.store.locks.with(c.key, fn)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.store.kv.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", c.key, ErrStorageRead, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}

	// Dates are stored as RFC 3339 strings and decode into time.Time here.
	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", c.key, ErrStorageRead, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w: %w", c.key, ErrStorageWrite, err)
	}
	if err := c.store.kv.Set(ctx, c.key, string(data)); err != nil {
		return fmt.Errorf("writing %s: %w: %w", c.key, ErrStorageWrite, err)
	}
	return nil
}
