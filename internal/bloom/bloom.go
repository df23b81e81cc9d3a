// Package bloom implements the fixed-parameter Bloom filter used to skip
// SSTs that cannot contain a queried key, along with its on-disk sidecar
// format so a Reader can seed a filter either from the SST's own filter
// block or by memory-mapping the standalone .bf file.
package bloom

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"

	"github.com/VinhDuyLe/bigtable/internal/base"
)

// sidecarMagic is the sidecar file's leading 8 bytes.
const sidecarMagic uint64 = 0x0000BF1DBEAD0B11

// sidecarHeaderLen is magic(8) + k(1) + m(4).
const sidecarHeaderLen = 13

// h2Seed is the nonzero seed used to derive the second double-hashing seed.
// Any nonzero constant works; this one is just a large odd mixing constant.
const h2Seed = 0x9E3779B9

// Filter is an m-bit array probed by k double-hashed indices per key.
type Filter struct {
	m    uint32
	k    uint32
	bits []byte
}

// New allocates an empty filter with the given bit count and hash count.
func New(m, k uint32) *Filter {
	if m == 0 {
		m = 1
	}
	if k == 0 {
		k = 1
	}
	return &Filter{m: m, k: k, bits: make([]byte, (m+7)/8)}
}

func seeds(key []byte) (uint32, uint32) {
	h1 := murmur3.Sum32WithSeed(key, 0)
	h2 := murmur3.Sum32WithSeed(key, h2Seed)
	if h2 == 0 {
		// A zero second seed would degenerate every probe to the same bit;
		// nudge it off zero, matching the "derive two seeds" contract
		// without ever producing a no-op probe sequence.
		h2 = 1
	}
	return h1, h2
}

// Add sets the k probed bits for key.
func (f *Filter) Add(key []byte) {
	h1, h2 := seeds(key)
	for i := uint32(0); i < f.k; i++ {
		bit := (h1 + i*h2) % f.m
		f.bits[bit/8] |= 1 << (bit % 8)
	}
}

// MightContain returns false only if key is definitely absent; true is a
// possibly-false positive.
func (f *Filter) MightContain(key []byte) bool {
	h1, h2 := seeds(key)
	for i := uint32(0); i < f.k; i++ {
		bit := (h1 + i*h2) % f.m
		if f.bits[bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// MarshalSidecar encodes the filter in the on-disk sidecar format:
// [u64 magic][u8 k][u32 m][bits...]. The SST's filter block stores these
// exact bytes too, so either can seed a reader.
func (f *Filter) MarshalSidecar() []byte {
	buf := make([]byte, sidecarHeaderLen+len(f.bits))
	binary.BigEndian.PutUint64(buf[0:8], sidecarMagic)
	buf[8] = byte(f.k)
	binary.BigEndian.PutUint32(buf[9:13], f.m)
	copy(buf[sidecarHeaderLen:], f.bits)
	return buf
}

// UnmarshalSidecar parses the sidecar format from buf (which may be a
// memory-mapped region — the returned Filter aliases it, it does not copy).
func UnmarshalSidecar(buf []byte) (*Filter, error) {
	if len(buf) < sidecarHeaderLen {
		return nil, base.CorruptionErrorf("bloom: sidecar truncated")
	}
	magic := binary.BigEndian.Uint64(buf[0:8])
	if magic != sidecarMagic {
		return nil, base.CorruptionErrorf("bloom: bad sidecar magic")
	}
	k := uint32(buf[8])
	m := binary.BigEndian.Uint32(buf[9:13])
	want := int((m + 7) / 8)
	bits := buf[sidecarHeaderLen:]
	if len(bits) < want {
		return nil, base.CorruptionErrorf("bloom: sidecar bit array truncated")
	}
	return &Filter{m: m, k: k, bits: bits[:want]}, nil
}
