package block

import (
	"bytes"
	"testing"

	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/internal/codec"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTripRaw(t *testing.T) {
	var buf bytes.Buffer
	raw := []byte("small payload that will not compress smaller")

	h, err := WriteRecord(&buf, Data, raw, nil, 0)
	require.NoError(t, err)

	typ, payload, err := ReadRecord(bytes.NewReader(buf.Bytes()), h)
	require.NoError(t, err)
	require.Equal(t, Data, typ)
	require.Equal(t, raw, payload)
}

func TestWriteReadRoundTripCompressed(t *testing.T) {
	var buf bytes.Buffer
	raw := bytes.Repeat([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), 100)
	compressed := codec.Zstd.Compress(nil, raw, 3)
	require.Less(t, len(compressed), len(raw))

	h, err := WriteRecord(&buf, Filter, raw, compressed, 0)
	require.NoError(t, err)

	typ, payload, err := ReadRecord(bytes.NewReader(buf.Bytes()), h)
	require.NoError(t, err)
	require.Equal(t, Filter, typ)
	require.Equal(t, raw, payload)
}

func TestReadRecordDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	raw := []byte("entries go here")
	h, err := WriteRecord(&buf, Index, raw, nil, 0)
	require.NoError(t, err)

	corrupted := buf.Bytes()
	corrupted[int(h.Offset)+HeaderLen] ^= 0xFF

	_, _, err = ReadRecord(bytes.NewReader(corrupted), h)
	require.Error(t, err)
	require.True(t, base.IsCorruption(err))
}
