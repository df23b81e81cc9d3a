package sstable

import "bytes"

// Iterator is a forward-only scan over a Reader's entries in [start, end).
// A nil start begins at the first entry; a nil end runs to the last.
// Iteration is single-use: callers needing another pass construct a fresh
// Iterator via Reader.NewIter.
type Iterator struct {
	r         *Reader
	startKey  []byte
	endKey    []byte
	blockIdx  int
	blockIter *blockIter
	err       error
}

// NewIter constructs an Iterator bounded to [start, end). Blocks are fetched
// through the Reader's cache as iteration proceeds.
func (r *Reader) NewIter(start, end []byte) *Iterator {
	it := &Iterator{r: r, startKey: start, endKey: end}
	it.First()
	return it
}

func (it *Iterator) loadBlock() {
	if it.blockIdx >= len(it.r.index) {
		it.blockIter = nil
		return
	}
	br, err := it.r.fetchBlock(it.blockIdx)
	if err != nil {
		it.err = err
		it.blockIter = nil
		return
	}
	start := it.startKey
	if it.blockIdx > seekIndex(it.r.index, it.startKey) {
		// Only the first block visited needs the start-key seek; later
		// blocks are entirely within range by construction of seekIndex.
		start = nil
	}
	it.blockIter = newBlockIter(br, start, it.endKey)
}

// advancePastBound moves to the next data block whenever the current one is
// exhausted, stopping for good once the end bound is reached or blocks run
// out.
func (it *Iterator) advancePastBound() {
	for it.blockIter != nil && !it.blockIter.Valid() {
		if err := it.blockIter.Err(); err != nil {
			it.err = err
			it.blockIter = nil
			return
		}
		it.blockIdx++
		if it.endKey != nil && it.blockIdx < len(it.r.index) &&
			bytes.Compare(it.r.index[it.blockIdx].firstKey, it.endKey) >= 0 {
			it.blockIter = nil
			return
		}
		it.loadBlock()
	}
}

// Valid reports whether the iterator is positioned on an entry.
func (it *Iterator) Valid() bool {
	return it.err == nil && it.blockIter != nil && it.blockIter.Valid()
}

// Err returns the first error encountered during iteration, if any.
func (it *Iterator) Err() error { return it.err }

// Key returns the current entry's key.
func (it *Iterator) Key() []byte { return it.blockIter.Key() }

// Value returns the current entry's value.
func (it *Iterator) Value() []byte { return it.blockIter.Value() }

// Next advances to the next entry in range, if any.
func (it *Iterator) Next() {
	if !it.Valid() {
		return
	}
	it.blockIter.Next()
	it.advancePastBound()
}

// First repositions the iterator to the first entry in [start, end), as if
// freshly constructed by NewIter, and reports whether that entry exists.
func (it *Iterator) First() bool {
	it.err = nil
	it.blockIdx = 0
	if len(it.startKey) > 0 {
		idx := seekIndex(it.r.index, it.startKey)
		if idx < 0 {
			idx = 0
		}
		it.blockIdx = idx
	}
	it.loadBlock()
	it.advancePastBound()
	return it.Valid()
}

// Close releases no resources of its own; blocks came from the Reader's
// cache and remain owned by it.
func (it *Iterator) Close() error {
	return nil
}
