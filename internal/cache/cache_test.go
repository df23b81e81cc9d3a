package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New(1 << 20)
	k := Key{FileNum: 1, Offset: 100}
	c.Set(k, []byte("block payload"))

	got, ok := c.Get(k)
	require.True(t, ok)
	require.Equal(t, []byte("block payload"), got)
}

func TestGetMissReportsFalse(t *testing.T) {
	c := New(1 << 20)
	_, ok := c.Get(Key{FileNum: 9, Offset: 9})
	require.False(t, ok)
}

func TestEvictionRespectsByteBudget(t *testing.T) {
	// One segment, tight budget, so eviction is deterministic to verify.
	c := New(1024, WithSegments(1))
	value := make([]byte, 100)
	for i := 0; i < 50; i++ {
		c.Set(Key{FileNum: 1, Offset: uint64(i)}, value)
	}
	m := c.Metrics()
	require.LessOrEqual(t, m.Size, m.Capacity+int64(len(value)))
	require.Greater(t, m.Evicted, uint64(0))
}

func TestMetricsAggregatesHitsAndMisses(t *testing.T) {
	c := New(1 << 20)
	k := Key{FileNum: 1, Offset: 1}
	c.Set(k, []byte("v"))
	c.Get(k)
	c.Get(Key{FileNum: 2, Offset: 2})

	m := c.Metrics()
	require.Equal(t, uint64(1), m.Hits)
	require.Equal(t, uint64(1), m.Misses)
}

func TestDistinctKeysDoNotCollide(t *testing.T) {
	c := New(1 << 20)
	for i := 0; i < 256; i++ {
		c.Set(Key{FileNum: uint64(i), Offset: uint64(i)}, []byte(fmt.Sprintf("v%d", i)))
	}
	for i := 0; i < 256; i++ {
		got, ok := c.Get(Key{FileNum: uint64(i), Offset: uint64(i)})
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("v%d", i), string(got))
	}
}
