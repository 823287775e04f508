package sheets

import (
	"context"
	"sync"
)

// Cached memoizes the first successful Resolve for the life of the process.
// Failed resolutions are retried on the next call. Concurrent first callers
// wait on the same lookup, so one process never creates two spreadsheets.
type Cached struct {
	Store

	mu     sync.Mutex
	handle *Handle
}

func NewCached(s Store) *Cached {
	return &Cached{Store: s}
}

func (c *Cached) Resolve(ctx context.Context) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil {
		return c.handle, nil
	}
	h, err := c.Store.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.handle = h
	return h, nil
}
