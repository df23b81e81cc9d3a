package sstable

import (
	"bytes"
	"encoding/binary"

	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/internal/codec"
)

// blockReader parses the restart-point structure out of a data or index
// block's decompressed payload. CRC verification and decompression happen
// one layer down, in internal/block, against the full on-disk record
// (header, payload, and CRC trailer); by the time a payload reaches here it
// has already been authenticated, so blockReader's only remaining job is the
// restart-point layout described in the format, not any further checksum.
type blockReader struct {
	data     []byte // entries region, [0, restartsOffset)
	restarts []uint32
}

func newBlockReader(payload []byte) (*blockReader, error) {
	if len(payload) < 4 {
		return nil, base.CorruptionErrorf("sstable: block truncated")
	}
	count := binary.BigEndian.Uint32(payload[len(payload)-4:])
	restartsOffset := len(payload) - 4 - 4*int(count)
	if restartsOffset < 0 {
		return nil, base.CorruptionErrorf("sstable: block restart count out of range")
	}
	restarts := make([]uint32, count)
	for i := range restarts {
		off := restartsOffset + 4*i
		restarts[i] = binary.BigEndian.Uint32(payload[off : off+4])
	}
	return &blockReader{data: payload[:restartsOffset], restarts: restarts}, nil
}

// decodeEntryAt parses one (sharedLen, unsharedLen, valueLen, suffix, value)
// entry starting at offset off, returning the offset just past it.
func (r *blockReader) decodeEntryAt(off int) (shared, unsharedLen, valueLen int, next int, err error) {
	buf := r.data[off:]
	sharedU, n1, err := codec.ReadUvarint32(buf)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	unsharedU, n2, err := codec.ReadUvarint32(buf[n1:])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	valueU, n3, err := codec.ReadUvarint32(buf[n1+n2:])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	header := n1 + n2 + n3
	return int(sharedU), int(unsharedU), int(valueU), off + header + int(unsharedU) + int(valueU), nil
}

// entryAt fully reconstructs the key and value of the entry at offset off,
// given the key reconstructed at the preceding restart point (or an earlier
// entry in the same run).
func (r *blockReader) entryAt(off int, prevKey []byte) (key, value []byte, next int, err error) {
	shared, unsharedLen, valueLen, next, err := r.decodeEntryAt(off)
	if err != nil {
		return nil, nil, 0, err
	}
	suffixStart := next - unsharedLen - valueLen
	suffix := r.data[suffixStart : suffixStart+unsharedLen]
	value = r.data[suffixStart+unsharedLen : next]

	key = make([]byte, shared+unsharedLen)
	copy(key, prevKey[:shared])
	copy(key[shared:], suffix)
	return key, value, next, nil
}

// restartKey reconstructs the full (always unshared) first key stored at
// restart index i.
func (r *blockReader) restartKey(i int) ([]byte, error) {
	key, _, _, err := r.entryAt(int(r.restarts[i]), nil)
	return key, err
}

// seekRestart returns the index of the greatest restart point whose first
// key is <= target, via binary search over restartKey.
func (r *blockReader) seekRestart(target []byte) (int, error) {
	lo, hi := 0, len(r.restarts)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		key, err := r.restartKey(mid)
		if err != nil {
			return 0, err
		}
		if bytes.Compare(key, target) <= 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best, nil
}

// get returns the value stored for target, or found=false if no entry in
// this block has that exact key.
func (r *blockReader) get(target []byte) (value []byte, found bool, err error) {
	if len(r.restarts) == 0 {
		return nil, false, nil
	}
	idx, err := r.seekRestart(target)
	if err != nil {
		return nil, false, err
	}
	off := int(r.restarts[idx])
	var key []byte
	for off < len(r.data) {
		key, value, off, err = r.entryAt(off, key)
		if err != nil {
			return nil, false, err
		}
		cmp := bytes.Compare(key, target)
		if cmp == 0 {
			return value, true, nil
		}
		if cmp > 0 {
			return nil, false, nil
		}
	}
	return nil, false, nil
}

// blockIter is a forward-only iterator over one block's entries, optionally
// bounded to [startKey, endKey). It is single-use: a fresh scan constructs a
// fresh blockIter, matching the iteration contract entries are consumed
// under.
type blockIter struct {
	r      *blockReader
	off    int
	key    []byte
	value  []byte
	endKey []byte
	valid  bool
	err    error
}

// newBlockIter constructs an iterator starting at or after startKey (or at
// the first entry if startKey is nil), bounded above by endKey (exclusive,
// or unbounded if nil).
func newBlockIter(r *blockReader, startKey, endKey []byte) *blockIter {
	it := &blockIter{r: r, endKey: endKey}
	off := 0
	var prev []byte
	if len(startKey) > 0 && len(r.restarts) > 0 {
		idx, err := r.seekRestart(startKey)
		if err != nil {
			it.err = err
			return it
		}
		off = int(r.restarts[idx])
	}
	// Linear scan forward from the chosen restart (or block start) until we
	// reach an entry whose key is >= startKey.
	for off < len(r.data) {
		key, value, next, err := r.entryAt(off, prev)
		if err != nil {
			it.err = err
			return it
		}
		if len(startKey) == 0 || bytes.Compare(key, startKey) >= 0 {
			if endKey != nil && bytes.Compare(key, endKey) >= 0 {
				return it
			}
			it.key, it.value, it.off = key, value, next
			it.valid = true
			return it
		}
		prev, off = key, next
	}
	return it
}

// Valid reports whether the iterator is positioned on an entry.
func (it *blockIter) Valid() bool { return it.valid && it.err == nil }

// Err returns the first error encountered, if any.
func (it *blockIter) Err() error { return it.err }

// Key returns the current entry's key. Only valid while Valid() is true.
func (it *blockIter) Key() []byte { return it.key }

// Value returns the current entry's value. Only valid while Valid() is true.
func (it *blockIter) Value() []byte { return it.value }

// Next advances to the next entry, respecting the upper bound if any.
func (it *blockIter) Next() {
	if !it.valid || it.off >= len(it.r.data) {
		it.valid = false
		return
	}
	key, value, next, err := it.r.entryAt(it.off, it.key)
	if err != nil {
		it.err = err
		it.valid = false
		return
	}
	if it.endKey != nil && bytes.Compare(key, it.endKey) >= 0 {
		it.valid = false
		return
	}
	it.key, it.value, it.off = key, value, next
}
