package sstable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockBuilderRoundTrip(t *testing.T) {
	b := newBlockBuilder(4)
	keys := make([][]byte, 0, 20)
	values := make([][]byte, 0, 20)
	for i := 0; i < 20; i++ {
		k := []byte(fmt.Sprintf("key-%04d", i))
		v := []byte(fmt.Sprintf("value-%d", i))
		b.add(k, v)
		keys = append(keys, k)
		values = append(values, v)
	}
	payload := b.finish()

	r, err := newBlockReader(payload)
	require.NoError(t, err)

	for i, k := range keys {
		v, found, err := r.get(k)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, values[i], v)
	}
}

func TestBlockBuilderRestartPoints(t *testing.T) {
	b := newBlockBuilder(4)
	for i := 0; i < 9; i++ {
		b.add([]byte(fmt.Sprintf("k%02d", i)), []byte("v"))
	}
	// 9 entries with restart interval 4: restarts at 0, 4, 8.
	require.Len(t, b.restarts, 3)
}

func TestBlockReaderGetMissing(t *testing.T) {
	b := newBlockBuilder(4)
	b.add([]byte("a"), []byte("1"))
	b.add([]byte("c"), []byte("3"))
	payload := b.finish()

	r, err := newBlockReader(payload)
	require.NoError(t, err)

	_, found, err := r.get([]byte("b"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestBlockIterForwardScan(t *testing.T) {
	b := newBlockBuilder(2)
	for i := 0; i < 6; i++ {
		b.add([]byte(fmt.Sprintf("k%d", i)), []byte(fmt.Sprintf("v%d", i)))
	}
	payload := b.finish()
	r, err := newBlockReader(payload)
	require.NoError(t, err)

	it := newBlockIter(r, []byte("k2"), []byte("k5"))
	var got []string
	for it.Valid() {
		got = append(got, string(it.Key()))
		it.Next()
	}
	require.NoError(t, it.Err())
	require.Equal(t, []string{"k2", "k3", "k4"}, got)
}
