package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 300, 1 << 20, 1<<32 - 1}
	for _, v := range values {
		buf := AppendUvarint32(nil, v)
		got, n, err := ReadUvarint32(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestReadUvarint32Truncated(t *testing.T) {
	buf := AppendUvarint32(nil, 1<<20)
	_, _, err := ReadUvarint32(buf[:1])
	require.Error(t, err)
}

func TestReadUvarint32TooLong(t *testing.T) {
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00}
	_, _, err := ReadUvarint32(buf)
	require.Error(t, err)
}
