package sharding

import (
	"fmt"

	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/sstable"
)

// shardPath renders the path of shard i of numShards, sibling to basePath.
func shardPath(basePath string, i, numShards int) string {
	return fmt.Sprintf("%s-%05d-of-%05d.sst", basePath, i, numShards)
}

// ShardedWriter fans writes out across numShards independent sstable.Writer
// instances according to fn, so the caller sees one logical Set call per
// entry regardless of shard count.
type ShardedWriter struct {
	basePath  string
	fn        Function
	numShards int
	writers   []*sstable.Writer
}

// NewShardedWriter creates the per-shard temp files. Each behaves as a
// normal sstable.Writer until the caller calls Close, which publishes all
// shards together.
func NewShardedWriter(basePath string, fn Function, numShards int, opts sstable.WriterOptions) (*ShardedWriter, error) {
	if numShards < 1 {
		return nil, base.InvalidInputErrorf("sharding: numShards must be >= 1")
	}
	sw := &ShardedWriter{basePath: basePath, fn: fn, numShards: numShards}
	for i := 0; i < numShards; i++ {
		w, err := sstable.NewWriter(shardPath(basePath, i, numShards), opts)
		if err != nil {
			sw.abortAll()
			return nil, err
		}
		w.SetMetadata(fn.Name(), fn.Config(), numShards)
		sw.writers = append(sw.writers, w)
	}
	return sw, nil
}

func (sw *ShardedWriter) abortAll() {
	for _, w := range sw.writers {
		if w != nil {
			w.Abort()
		}
	}
}

// Set routes (key, value) to its shard's writer via fn.ShardOf. Callers must
// still present keys in overall non-decreasing order within each shard; the
// underlying writer enforces that per shard.
func (sw *ShardedWriter) Set(key, value []byte) error {
	i := sw.fn.ShardOf(key, sw.numShards)
	return sw.writers[i].Set(key, value)
}

// Close finishes and publishes every shard. SST files are independently
// complete, so a failure partway through still leaves every already-closed
// shard valid; the caller is responsible for cleaning up a partial table on
// error.
func (sw *ShardedWriter) Close() error {
	for i, w := range sw.writers {
		if err := w.Close(); err != nil {
			return base.WrapIO(err, "sharding: close shard %d of %d", i, sw.numShards)
		}
	}
	return nil
}
