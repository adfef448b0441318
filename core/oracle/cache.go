package oracle

import (
	"context"
	"sync"

	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/model"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes the lookups of another oracle. Concurrent lookups of the
// same entity share one call to the backend, which is not cancelled with any
// single caller. Failed lookups are not cached.
type Cache struct {
	*pipeline.LookupOracle
	next  pipeline.RelationOracle
	group singleflight.Group

	mu      sync.RWMutex
	entries map[model.Entity][]model.Relation
}

// NewCache wraps next.
func NewCache(next pipeline.RelationOracle) *Cache {
	c := &Cache{
		next:    next,
		entries: make(map[model.Entity][]model.Relation),
	}
	c.LookupOracle = pipeline.OracleFromLookup(c.lookup)
	return c
}

// Len returns the number of cached entities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[model.Entity][]model.Relation)
	c.mu.Unlock()
}

func (c *Cache) lookup(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	c.mu.RLock()
	relations, ok := c.entries[e]
	c.mu.RUnlock()
	if ok {
		return relations, nil
	}

	// The shared call outlives the caller that started it, so one
	// caller's deadline does not fail the lookups joined to it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(string(e), func() (any, error) {
		c.mu.RLock()
		relations, ok := c.entries[e]
		c.mu.RUnlock()
		if ok {
			return relations, nil
		}

		relations, err := c.next.Lookup(shared, e)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[e] = relations
		c.mu.Unlock()
		return relations, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Relation), nil
	}
}
