package sstable

import (
	"encoding/binary"

	"github.com/VinhDuyLe/bigtable/internal/codec"
)

// blockBuilder accumulates sorted entries into one data (or index) block's
// raw payload, prefix-compressing each key against the previous one except
// at restart points, where the full key is stored so a reader can binary
// search without reconstructing every preceding entry.
type blockBuilder struct {
	restartInterval int

	buf      []byte
	restarts []uint32
	lastKey  []byte
	counter  int
}

func newBlockBuilder(restartInterval int) *blockBuilder {
	if restartInterval < 1 {
		restartInterval = 1
	}
	return &blockBuilder{restartInterval: restartInterval}
}

func sharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// add appends one (key, value) entry. Callers (the writer) are responsible
// for enforcing non-decreasing key order; the builder itself does not
// re-check it.
func (b *blockBuilder) add(key, value []byte) {
	var shared int
	if b.counter%b.restartInterval == 0 {
		b.restarts = append(b.restarts, uint32(len(b.buf)))
		shared = 0
	} else {
		shared = sharedPrefixLen(b.lastKey, key)
	}

	b.buf = codec.AppendUvarint32(b.buf, uint32(shared))
	b.buf = codec.AppendUvarint32(b.buf, uint32(len(key)-shared))
	b.buf = codec.AppendUvarint32(b.buf, uint32(len(value)))
	b.buf = append(b.buf, key[shared:]...)
	b.buf = append(b.buf, value...)

	b.lastKey = append(b.lastKey[:0], key...)
	b.counter++
}

// empty reports whether any entry has been added since the last reset.
func (b *blockBuilder) empty() bool { return b.counter == 0 }

// estimatedSize is the approximate on-disk payload size if finished now,
// used by the writer to decide when to flush.
func (b *blockBuilder) estimatedSize() int {
	return len(b.buf) + 4*len(b.restarts) + 4
}

// finish appends the restart array and restart count, returning the
// complete block payload. The builder is left usable for the next block
// after reset is called.
func (b *blockBuilder) finish() []byte {
	out := b.buf
	for _, r := range b.restarts {
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], r)
		out = append(out, tmp[:]...)
	}
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(b.restarts)))
	out = append(out, count[:]...)
	return out
}

// reset clears the builder so it can accumulate the next block. lastKey is
// kept, but the next add starts a restart point and so never shares a prefix
// with it; ordering across a flush is enforced by the Writer, not here.
func (b *blockBuilder) reset() {
	b.buf = b.buf[:0]
	b.restarts = b.restarts[:0]
	b.counter = 0
}
