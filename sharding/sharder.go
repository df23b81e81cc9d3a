// Package sharding spreads one logical table across N independently
// complete SST files, each addressable on its own, so a table can exceed
// what one file or one writer goroutine should hold.
package sharding

import (
	"encoding/binary"
	"sort"

	"github.com/spaolacci/murmur3"

	"github.com/VinhDuyLe/bigtable/internal/base"
)

// Function decides which shard a key belongs to. Implementations must be
// deterministic and stable forever for a given (Name, config) pair, since
// shard assignment is never revisited after a table is written.
type Function interface {
	ShardOf(key []byte, numShards int) int
	Name() string
	Config() []byte
}

// modSharder routes by murmur3_32(key) mod N. It carries no configuration
// beyond its name.
type modSharder struct{}

// NewMod returns the "mod" built-in sharding function.
func NewMod() Function { return modSharder{} }

func (modSharder) Name() string    { return "mod" }
func (modSharder) Config() []byte  { return nil }
func (modSharder) ShardOf(key []byte, numShards int) int {
	h := murmur3.Sum32(key) & 0x7FFFFFFF
	return int(h) % numShards
}

// rangeSharder routes by the upper-bound position of key among a sorted set
// of boundary keys, so each shard owns a contiguous key range.
type rangeSharder struct {
	boundaries [][]byte
}

// NewRange returns the "range:v1" built-in sharding function, configured
// with N-1 sorted boundary keys for N shards.
func NewRange(boundaries [][]byte) Function {
	return rangeSharder{boundaries: boundaries}
}

func (r rangeSharder) Name() string { return "range:v1" }

func (r rangeSharder) Config() []byte {
	var buf []byte
	for _, b := range r.boundaries {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(b)))
		buf = append(buf, n[:]...)
		buf = append(buf, b...)
	}
	return buf
}

func (r rangeSharder) ShardOf(key []byte, numShards int) int {
	// upperBound: first boundary strictly greater than key.
	i := sort.Search(len(r.boundaries), func(i int) bool {
		return compareBytes(r.boundaries[i], key) > 0
	})
	if i >= numShards {
		i = numShards - 1
	}
	return i
}

func decodeRangeConfig(buf []byte) ([][]byte, error) {
	var boundaries [][]byte
	for len(buf) > 0 {
		if len(buf) < 4 {
			return nil, base.CorruptionErrorf("sharding: truncated range config")
		}
		n := binary.BigEndian.Uint32(buf[0:4])
		buf = buf[4:]
		if uint32(len(buf)) < n {
			return nil, base.CorruptionErrorf("sharding: truncated range boundary")
		}
		boundaries = append(boundaries, append([]byte(nil), buf[:n]...))
		buf = buf[n:]
	}
	return boundaries, nil
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// fingerprintSharder routes by the low 64 bits of murmur3_128(key) mod N,
// giving a more uniform spread than a 32-bit hash once N grows large.
type fingerprintSharder struct{}

// NewFingerprint returns the "fingerprint:v2" built-in sharding function.
func NewFingerprint() Function { return fingerprintSharder{} }

func (fingerprintSharder) Name() string   { return "fingerprint:v2" }
func (fingerprintSharder) Config() []byte { return nil }

func (fingerprintSharder) ShardOf(key []byte, numShards int) int {
	lo, _ := murmur3.Sum128(key)
	h := lo & 0x7FFFFFFFFFFFFFFF
	return int(h % uint64(numShards))
}

// ByName reconstructs a built-in Function from its recorded name and config,
// as read back from a shard's meta block.
func ByName(name string, config []byte) (Function, error) {
	switch name {
	case "mod":
		return NewMod(), nil
	case "range:v1":
		boundaries, err := decodeRangeConfig(config)
		if err != nil {
			return nil, err
		}
		return NewRange(boundaries), nil
	case "fingerprint:v2":
		return NewFingerprint(), nil
	default:
		return nil, base.InvalidInputErrorf("sharding: unknown sharder %q", name)
	}
}
