package sharding

import (
	"bytes"
	"container/heap"

	"golang.org/x/sync/errgroup"

	"github.com/VinhDuyLe/bigtable/sstable"
)

// shardStream wraps one shard's Iterator with the next-entry state the merge
// heap needs to compare across shards.
type shardStream struct {
	it    *sstable.Iterator
	valid bool
}

func (s *shardStream) advance() error {
	s.it.Next()
	s.valid = s.it.Valid()
	if !s.valid {
		return s.it.Err()
	}
	return nil
}

// mergeHeap orders active streams by current key, ascending.
type mergeHeap []*shardStream

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	return bytes.Compare(h[i].it.Key(), h[j].it.Key()) < 0
}
func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)   { *h = append(*h, x.(*shardStream)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// ShardedIterator performs a k-way merge across every participating shard's
// Iterator, yielding entries in overall ascending key order.
type ShardedIterator struct {
	streams []*shardStream
	h       mergeHeap
	err     error
	cur     *shardStream
}

// NewIter opens an iterator over [start, end) across the shards whose range
// could intersect it. For range:v1 that can be a subset of the shards (all
// of them when both bounds are nil);
// for mod and fingerprint:v2, every shard's key space is unordered with
// respect to the query so every shard must be opened.
func (sr *ShardedReader) NewIter(start, end []byte) (*ShardedIterator, error) {
	shardIdxs := sr.shardsIntersecting(start, end)

	streams := make([]*shardStream, len(shardIdxs))
	g := new(errgroup.Group)
	for pos, idx := range shardIdxs {
		pos, idx := pos, idx
		g.Go(func() error {
			it := sr.readers[idx].NewIter(start, end)
			streams[pos] = &shardStream{it: it, valid: it.Valid()}
			if !streams[pos].valid {
				return it.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	si := &ShardedIterator{streams: streams}
	for _, s := range streams {
		if s.valid {
			si.h = append(si.h, s)
		}
	}
	heap.Init(&si.h)
	si.advance()
	return si, nil
}

// shardsIntersecting narrows the shard set for range:v1 sharders to those
// whose boundary range could contain [start, end); every other sharder
// offers no ordering guarantee across shards, so all of them participate.
func (sr *ShardedReader) shardsIntersecting(start, end []byte) []int {
	rs, ok := sr.fn.(rangeSharder)
	if !ok {
		idxs := make([]int, sr.numShards)
		for i := range idxs {
			idxs[i] = i
		}
		return idxs
	}

	lo := 0
	if len(start) > 0 {
		lo = rs.ShardOf(start, sr.numShards)
	}
	hi := sr.numShards - 1
	if len(end) > 0 {
		hi = rs.ShardOf(end, sr.numShards)
	}
	if hi < lo {
		hi = lo
	}
	idxs := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		idxs = append(idxs, i)
	}
	return idxs
}

// advance pops the least-key stream and makes it current. It does not push
// anything back; Next re-inserts the stream once it has moved forward.
func (si *ShardedIterator) advance() {
	if si.h.Len() == 0 {
		si.cur = nil
		return
	}
	s := heap.Pop(&si.h).(*shardStream)
	si.cur = s
	// The popped stream's Key/Value are read by callers before the next
	// advance; reinsert only after moving it forward so the heap never
	// holds two references to the same exhausted slot.
}

// Valid reports whether the iterator is positioned on an entry.
func (si *ShardedIterator) Valid() bool { return si.err == nil && si.cur != nil }

// Err returns the first error encountered, if any.
func (si *ShardedIterator) Err() error { return si.err }

// Key returns the current entry's key.
func (si *ShardedIterator) Key() []byte { return si.cur.it.Key() }

// Value returns the current entry's value.
func (si *ShardedIterator) Value() []byte { return si.cur.it.Value() }

// Next advances the merge, re-inserting the previously current stream once
// it has moved past the entry just returned.
func (si *ShardedIterator) Next() {
	if si.cur == nil {
		return
	}
	prev := si.cur
	if err := prev.advance(); err != nil {
		si.err = err
		si.cur = nil
		return
	}
	if prev.valid {
		heap.Push(&si.h, prev)
	}
	si.advance()
}

// Close closes every participating shard's underlying Iterator.
func (si *ShardedIterator) Close() error {
	for _, s := range si.streams {
		if s != nil {
			s.it.Close()
		}
	}
	return nil
}
