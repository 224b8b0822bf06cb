package repository

import (
	"context"
	"sync/atomic"
)

// MemoryFolioCounter keeps the folio in process memory. Values are lost on
// restart; use FolioRepository or SQLiteFolioRepository to persist them.
type MemoryFolioCounter struct {
	value atomic.Int64
}

// NewMemoryFolioCounter creates a counter whose first Next returns start+1.
func NewMemoryFolioCounter(start int64) *MemoryFolioCounter {
	c := &MemoryFolioCounter{}
	c.value.Store(start)
	return c
}

// Next atomically increments the counter and returns the new value.
func (c *MemoryFolioCounter) Next(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.value.Add(1), nil
}

// Current returns the last issued value.
func (c *MemoryFolioCounter) Current() int64 {
	return c.value.Load()
}

// Ping always succeeds.
func (c *MemoryFolioCounter) Ping(ctx context.Context) error {
	return nil
}
