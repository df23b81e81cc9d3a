package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZstdRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte("sstable data block payload "), 50)
	compressed := Zstd.Compress(nil, raw, 3)
	require.Less(t, len(compressed), len(raw))

	got, err := Zstd.Decompress(nil, compressed, len(raw))
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestZstdDecompressSizeMismatch(t *testing.T) {
	raw := bytes.Repeat([]byte("x"), 1000)
	compressed := Zstd.Compress(nil, raw, 3)

	_, err := Zstd.Decompress(nil, compressed, len(raw)-1)
	require.Error(t, err)
}
