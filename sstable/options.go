package sstable

import (
	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/internal/cache"
)

// Default tuning knobs, chosen to match the values the format itself
// specifies for bloom sizing and the conventional LSM block size.
const (
	DefaultBlockSize        = 4 << 10 // 4 KiB of pre-compression payload
	DefaultRestartInterval  = 16
	DefaultCompressionLevel = 3       // zstd.SpeedDefault-equivalent level
	DefaultBloomBits        = 1 << 20 // m
	DefaultBloomHashes      = 4       // k
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	BlockSize        int
	RestartInterval  int
	CompressionLevel int
	BloomBits        uint32
	BloomHashes      uint32

	// DisableCompression skips compression entirely, storing every block raw. Useful
	// for tests that want to inspect block contents byte for byte.
	DisableCompression bool
}

// EnsureDefaults returns a copy of o with zero-valued fields set to their
// defaults; o itself is not modified.
func (o WriterOptions) EnsureDefaults() WriterOptions {
	if o.BlockSize <= 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.RestartInterval <= 0 {
		o.RestartInterval = DefaultRestartInterval
	}
	if o.CompressionLevel <= 0 {
		o.CompressionLevel = DefaultCompressionLevel
	}
	if o.BloomBits == 0 {
		o.BloomBits = DefaultBloomBits
	}
	if o.BloomHashes == 0 {
		o.BloomHashes = DefaultBloomHashes
	}
	return o
}

// ReaderOptions configures an Open call.
type ReaderOptions struct {
	// Cache is consulted for block lookups keyed by (FileNum, offset). A nil
	// Cache disables caching; every Get/scan reads straight from the file.
	Cache *cache.Cache

	// MmapFilter opens the .bf sidecar via mmap instead of reading the
	// in-file filter block, avoiding a copy for large filters.
	MmapFilter bool

	// Logger receives Open diagnostics (block and entry counts). A nil
	// Logger means Open logs nothing; there is no implicit global logger.
	Logger base.Logger
}

func (o ReaderOptions) ensureDefaults() ReaderOptions {
	return o
}
