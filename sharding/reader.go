package sharding

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/sstable"
)

// ShardedReader opens every shard of a sharded table and routes Get/NewIter
// calls to the shard(s) that can hold the queried key(s).
type ShardedReader struct {
	basePath  string
	fn        Function
	numShards int
	readers   []*sstable.Reader
}

// OpenSharded opens shard 0 to discover numShards from its meta block, then
// opens the remaining shards and verifies they all agree on sharder
// identity and shard count.
func OpenSharded(basePath string, opts sstable.ReaderOptions) (*ShardedReader, error) {
	first, err := openFirstShard(basePath, opts)
	if err != nil {
		return nil, err
	}
	meta := first.Metadata()
	numShards := meta.NumShards
	if numShards < 1 {
		first.Close()
		return nil, base.CorruptionErrorf("sharding: %s: invalid shard count %d in meta block", basePath, numShards)
	}
	fn, err := ByName(meta.SharderName, meta.SharderConfig)
	if err != nil {
		first.Close()
		return nil, err
	}

	sr := &ShardedReader{basePath: basePath, fn: fn, numShards: numShards}
	sr.readers = make([]*sstable.Reader, numShards)
	sr.readers[0] = first

	for i := 1; i < numShards; i++ {
		r, err := sstable.Open(shardPath(basePath, i, numShards), opts)
		if err != nil {
			sr.Close()
			return nil, err
		}
		m := r.Metadata()
		if m.SharderName != meta.SharderName || m.NumShards != numShards || !bytes.Equal(m.SharderConfig, meta.SharderConfig) {
			r.Close()
			sr.Close()
			return nil, base.CorruptionErrorf("sharding: %s: shard manifest skew at shard %d", basePath, i)
		}
		sr.readers[i] = r
	}
	return sr, nil
}

// openFirstShard locates shard 0 without yet knowing numShards, since that
// count is itself embedded in every shard's filename. It globs for
// "<basePath>-00000-of-*.sst" and opens whatever single match turns up.
func openFirstShard(basePath string, opts sstable.ReaderOptions) (*sstable.Reader, error) {
	matches, err := filepath.Glob(fmt.Sprintf("%s-00000-of-*.sst", basePath))
	if err != nil {
		return nil, base.WrapIO(err, "sharding: %s: glob shard 0", basePath)
	}
	switch len(matches) {
	case 0:
		return nil, base.IOErrorf("sharding: %s: no shard 0 file found", basePath)
	case 1:
		return sstable.Open(matches[0], opts)
	default:
		return nil, base.CorruptionErrorf("sharding: %s: multiple shard-0 candidates found", basePath)
	}
}

// Get computes the owning shard and delegates to it.
func (sr *ShardedReader) Get(key []byte) ([]byte, error) {
	i := sr.fn.ShardOf(key, sr.numShards)
	return sr.readers[i].Get(key)
}

// MightContain consults only the owning shard's filter.
func (sr *ShardedReader) MightContain(key []byte) bool {
	i := sr.fn.ShardOf(key, sr.numShards)
	return sr.readers[i].MightContain(key)
}

// Close closes every shard reader, returning the first error encountered (if
// any) after attempting to close them all.
func (sr *ShardedReader) Close() error {
	var first error
	for i, r := range sr.readers {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil && first == nil {
			first = fmt.Errorf("sharding: close shard %d: %w", i, err)
		}
	}
	return first
}
