package sharding

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VinhDuyLe/bigtable/sstable"
)

func writeShardedTestTable(t *testing.T, base string, fn Function, numShards, n int) map[string]string {
	t.Helper()
	w, err := NewShardedWriter(base, fn, numShards, sstable.WriterOptions{BlockSize: 1024})
	require.NoError(t, err)

	entries := make(map[string]string, n)
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, fmt.Sprintf("key-%06d", i))
	}
	sort.Strings(keys)

	// mod/fingerprint sharders accept keys in any order since each shard's
	// own writer only needs per-shard non-decreasing order; sort once here
	// and rely on fn routing each key to a consistent shard regardless of
	// global order, matching how a real ingestion pipeline would partition
	// already-sorted input across shards.
	perShard := make(map[int][]string)
	for _, k := range keys {
		s := fn.ShardOf([]byte(k), numShards)
		perShard[s] = append(perShard[s], k)
	}
	for s := 0; s < numShards; s++ {
		for _, k := range perShard[s] {
			v := "value-for-" + k
			require.NoError(t, w.Set([]byte(k), []byte(v)))
			entries[k] = v
		}
	}
	require.NoError(t, w.Close())
	return entries
}

func TestShardedModRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "sharded")
	fn := NewMod()
	entries := writeShardedTestTable(t, base, fn, 4, 400)

	r, err := OpenSharded(base, sstable.ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	for k, v := range entries {
		got, err := r.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, v, string(got))
	}
}

func TestShardedRangeScanMerges(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "sharded-range")

	boundaries := [][]byte{[]byte("key-000100"), []byte("key-000200")}
	fn := NewRange(boundaries)
	entries := writeShardedTestTable(t, base, fn, 3, 300)

	r, err := OpenSharded(base, sstable.ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	it, err := r.NewIter(nil, nil)
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Valid() {
		got = append(got, string(it.Key()))
		it.Next()
	}
	require.NoError(t, it.Err())

	want := make([]string, 0, len(entries))
	for k := range entries {
		want = append(want, k)
	}
	sort.Strings(want)

	require.Equal(t, want, got)
}

func TestShardedManifestSkewDetected(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "skewed")

	w, err := sstable.NewWriter(shardPath(base, 0, 2), sstable.WriterOptions{})
	require.NoError(t, err)
	w.SetMetadata("mod", nil, 2)
	require.NoError(t, w.Set([]byte("a"), []byte("1")))
	require.NoError(t, w.Close())

	w2, err := sstable.NewWriter(shardPath(base, 1, 2), sstable.WriterOptions{})
	require.NoError(t, err)
	w2.SetMetadata("mod", nil, 3) // deliberately inconsistent shard count
	require.NoError(t, w2.Set([]byte("b"), []byte("2")))
	require.NoError(t, w2.Close())

	_, err = OpenSharded(base, sstable.ReaderOptions{})
	require.Error(t, err)
}
