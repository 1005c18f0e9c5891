package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/swamy3697/Shop-Mate/internal/kv"
)

var errDiskFull = errors.New("disk full")

// flakyKV wraps a memory store and fails every Set after the first okSets.
type flakyKV struct {
	*kv.Memory

	mu     sync.Mutex
	okSets int
	sets   int
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.sets++
	fail := f.okSets >= 0 && f.sets > f.okSets
	f.mu.Unlock()

	if fail {
		return errDiskFull
	}
	return f.Memory.Set(ctx, key, value)
}

// newTestStore returns a memory-backed Store whose clock starts at a fixed
// instant and advances by one second per reading.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(kv.NewMemory())
	s.now = steppingClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Second)
	return s
}

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := current
		current = current.Add(step)
		return t
	}
}
