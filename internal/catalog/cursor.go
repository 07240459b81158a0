package catalog

import (
	"container/heap"
	"context"

	"optioncatalog/internal/models"
	"optioncatalog/internal/storage"
)

type partitionRef struct {
	inst    models.InstrumentID
	rng     storage.Range
	ordinal int
}

// mergeSource is one partition in the merge. Until loaded, key is the
// partition's start, a lower bound for every record in it.
type mergeSource[R any] struct {
	ref    partitionRef
	loaded bool
	recs   []R
	pos    int
	key    int64
}

type mergeHeap[R any] []*mergeSource[R]

func (h mergeHeap[R]) Len() int { return len(h) }
func (h mergeHeap[R]) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.key != b.key {
		return a.key < b.key
	}
	if a.ref.inst != b.ref.inst {
		return a.ref.inst < b.ref.inst
	}
	return a.ref.ordinal < b.ref.ordinal
}
func (h mergeHeap[R]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap[R]) Push(x any)   { *h = append(*h, x.(*mergeSource[R])) }
func (h *mergeHeap[R]) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return s
}

// Cursor iterates query results in timestamp order, ties broken by
// instrument then partition order. Partitions are read only when the merge
// reaches them. A Cursor is not safe for concurrent use.
type Cursor[R any] struct {
	ctx        context.Context
	tier       *Tier[R]
	heap       mergeHeap[R]
	start, end int64
	cur        R
	err        error
	closed     bool
}

func newCursor[R any](ctx context.Context, t *Tier[R], parts []partitionRef, start, end int64) *Cursor[R] {
	c := &Cursor[R]{ctx: ctx, tier: t, start: start, end: end}
	for _, p := range parts {
		key := p.rng.Start
		if key < start {
			key = start
		}
		c.heap = append(c.heap, &mergeSource[R]{ref: p, key: key})
	}
	heap.Init(&c.heap)
	return c
}

// Next advances to the next record. It returns false when the results are
// exhausted or an error occurred; check Err.
func (c *Cursor[R]) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	for c.heap.Len() > 0 {
		if err := c.ctx.Err(); err != nil {
			c.err = err
			return false
		}
		top := c.heap[0]
		if !top.loaded {
			if err := c.fill(top); err != nil {
				c.err = err
				return false
			}
			if top.pos >= len(top.recs) {
				heap.Pop(&c.heap)
			} else {
				heap.Fix(&c.heap, 0)
			}
			continue
		}
		c.cur = top.recs[top.pos]
		top.pos++
		if top.pos >= len(top.recs) {
			heap.Pop(&c.heap)
		} else {
			top.key = c.tier.schema.ts(top.recs[top.pos])
			heap.Fix(&c.heap, 0)
		}
		return true
	}
	return false
}

// fill loads a partition and keeps only records inside the query window.
func (c *Cursor[R]) fill(s *mergeSource[R]) error {
	recs, err := c.tier.load(c.ctx, s.ref)
	if err != nil {
		return err
	}
	kept := recs[:0]
	for _, r := range recs {
		if ts := c.tier.schema.ts(r); ts >= c.start && ts <= c.end {
			kept = append(kept, r)
		}
	}
	s.recs, s.loaded = kept, true
	if len(kept) > 0 {
		s.key = c.tier.schema.ts(kept[0])
	}
	return nil
}

// Record returns the record Next advanced to.
func (c *Cursor[R]) Record() R { return c.cur }

// Err returns the first error met while iterating.
func (c *Cursor[R]) Err() error { return c.err }

// Close releases buffered partitions. Next returns false afterwards.
func (c *Cursor[R]) Close() error {
	c.closed = true
	c.heap = nil
	return nil
}

// Collect drains the cursor into a slice and closes it.
func Collect[R any](c *Cursor[R]) ([]R, error) {
	defer c.Close()
	var out []R
	for c.Next() {
		out = append(out, c.Record())
	}
	return out, c.Err()
}
