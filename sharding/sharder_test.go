package sharding

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModShardOfIsDeterministic(t *testing.T) {
	fn := NewMod()
	key := []byte("some-key")
	first := fn.ShardOf(key, 8)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, fn.ShardOf(key, 8))
	}
	require.GreaterOrEqual(t, first, 0)
	require.Less(t, first, 8)
}

func TestModShardDistribution(t *testing.T) {
	fn := NewMod()
	counts := make(map[int]int)
	for i := 0; i < 4000; i++ {
		k := []byte(fmt.Sprintf("key-%d", i))
		counts[fn.ShardOf(k, 8)]++
	}
	require.Len(t, counts, 8, "expected keys to spread across all shards")
}

func TestRangeShardOfRespectsBoundaries(t *testing.T) {
	boundaries := [][]byte{[]byte("g"), []byte("m"), []byte("t")}
	fn := NewRange(boundaries)

	require.Equal(t, 0, fn.ShardOf([]byte("a"), 4))
	require.Equal(t, 0, fn.ShardOf([]byte("f"), 4))
	require.Equal(t, 1, fn.ShardOf([]byte("h"), 4))
	require.Equal(t, 2, fn.ShardOf([]byte("n"), 4))
	require.Equal(t, 3, fn.ShardOf([]byte("z"), 4))
}

func TestRangeConfigRoundTrip(t *testing.T) {
	boundaries := [][]byte{[]byte("d"), []byte("m"), []byte("s")}
	fn := NewRange(boundaries)
	config := fn.Config()

	got, err := decodeRangeConfig(config)
	require.NoError(t, err)
	require.Equal(t, boundaries, got)
}

func TestFingerprintShardOfIsDeterministic(t *testing.T) {
	fn := NewFingerprint()
	key := []byte("another-key")
	first := fn.ShardOf(key, 16)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, fn.ShardOf(key, 16))
	}
}

func TestByNameReconstructsSharders(t *testing.T) {
	mod := NewMod()
	got, err := ByName(mod.Name(), mod.Config())
	require.NoError(t, err)
	require.Equal(t, mod.ShardOf([]byte("x"), 5), got.ShardOf([]byte("x"), 5))

	rng := NewRange([][]byte{[]byte("m")})
	got, err = ByName(rng.Name(), rng.Config())
	require.NoError(t, err)
	require.Equal(t, rng.ShardOf([]byte("z"), 2), got.ShardOf([]byte("z"), 2))
}

func TestByNameUnknownSharder(t *testing.T) {
	_, err := ByName("bogus", nil)
	require.Error(t, err)
}
