package kanban

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/braidhq/braid/pkg/ledger"
)

// ThreadLoader fetches a module's threads from the authoritative store.
type ThreadLoader func() ([]*ledger.Thread, error)

// DefaultCacheSize bounds the number of module boards held at once.
const DefaultCacheSize = 64

// cached pairs a computed board with the event-sequence watermark it was
// computed at. A stale watermark means the module has mutated since and
// the board must be recomputed - the cache can serve stale data only by
// serving nothing.
type cached struct {
	watermark int64
	columns   []Column
}

// Cache memoizes per-module board projections, invalidated by the module's
// event-sequence watermark.
type Cache struct {
	boards   *lru.Cache[string, cached]
	tieBreak TieBreak
}

// NewCache creates a board cache.
// Non-positive sizes fall back to DefaultCacheSize.
func NewCache(size int, tieBreak TieBreak) (*Cache, error) {
	if err := tieBreak.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	boards, err := lru.New[string, cached](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create board cache: %w", err)
	}
	return &Cache{boards: boards, tieBreak: tieBreak}, nil
}

// Columns returns the board for a module at the given watermark, calling
// load to fetch the module's threads only when the cached board is missing
// or stale.
func (c *Cache) Columns(moduleID string, watermark int64, load ThreadLoader) ([]Column, error) {
	if entry, ok := c.boards.Get(moduleID); ok && entry.watermark == watermark {
		return entry.columns, nil
	}

	threads, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load threads for module %s: %w", moduleID, err)
	}

	columns := Project(threads, c.tieBreak)
	c.boards.Add(moduleID, cached{watermark: watermark, columns: columns})
	return columns, nil
}

// Invalidate drops a module's cached board.
func (c *Cache) Invalidate(moduleID string) {
	c.boards.Remove(moduleID)
}

// Purge drops every cached board. Used before replay.
func (c *Cache) Purge() {
	c.boards.Purge()
}
