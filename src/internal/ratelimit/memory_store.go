package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/logger"
)

const sweepEvery = 100

type windowEntry struct {
	index         int64
	windowSeconds int64
	count         atomic.Int64
}

// MemoryStore is a process-wide counter map. Every sweepEvery increments a
// sweep runs in the background and drops windows older than two windows
// before the current one for their own window size.
type MemoryStore struct {
	entries  sync.Map
	ops      atomic.Uint64
	sweeping atomic.Bool
	now      func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Increment(_ context.Context, key string, windowIndex int64, windowSeconds int64) (int64, error) {
	k := windowKey(key, windowIndex)
	value, ok := s.entries.Load(k)
	if !ok {
		value, _ = s.entries.LoadOrStore(k, &windowEntry{index: windowIndex, windowSeconds: windowSeconds})
	}
	count := value.(*windowEntry).count.Add(1)

	if s.ops.Add(1)%sweepEvery == 0 && s.sweeping.CompareAndSwap(false, true) {
		go func() {
			defer s.sweeping.Store(false)
			s.Sweep()
		}()
	}

	return count, nil
}

// Sweep removes expired windows and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	now := s.now().Unix()
	removed := 0
	s.entries.Range(func(key, value any) bool {
		entry := value.(*windowEntry)
		if entry.index < now/entry.windowSeconds-2 {
			s.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		logger.Info("rate limit store sweep success", logger.Fields{"removed": removed})
	}
	return removed
}

func (s *MemoryStore) Size(_ context.Context) (int, error) {
	size := 0
	s.entries.Range(func(_, _ any) bool {
		size++
		return true
	})
	return size, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.entries.Clear()
	return nil
}
