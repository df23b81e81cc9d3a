// Package block implements the outer framing shared by every block in an
// SST file — data, filter, index, and meta alike share one header+CRC
// envelope, parameterized by Type, rather than four near-identical classes.
package block

import (
	"encoding/binary"
	"io"

	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/internal/codec"
	"github.com/VinhDuyLe/bigtable/internal/crc"
)

// Type identifies the kind of payload a block carries.
type Type uint8

const (
	Data Type = iota
	Index
	Filter
	Meta
)

const (
	flagCompressed byte = 1 << 0
	knownFlagsMask byte = flagCompressed
)

// HeaderLen is the size of the framing header that precedes every block's
// payload on disk.
const HeaderLen = 12

// TrailerLen is the size of the CRC32C trailer that follows every block's
// payload on disk.
const TrailerLen = 4

// Handle locates one framed block record (header + payload + trailer) in an
// SST file. Length is the full on-disk record length, not just the payload.
type Handle struct {
	Offset uint64
	Length uint32
}

// WriteRecord frames raw (or, if smaller, compressed) as a block record of
// the given type and writes header, payload, and CRC trailer to w in that
// order. offset is the position w is about to write at, used only to fill
// in the returned Handle — callers track the actual file offset themselves
// since io.Writer exposes no Tell.
func WriteRecord(w io.Writer, typ Type, raw []byte, compressed []byte, offset int64) (Handle, error) {
	payload := raw
	var flags byte
	if compressed != nil && len(compressed) < len(raw) {
		payload = compressed
		flags = flagCompressed
	}

	header := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(header[4:8], uint32(len(raw)))
	header[8] = byte(typ)
	header[9] = flags
	// header[10:12] is the reserved field and stays zero.

	sum := crc.New(header).Update(payload)

	if _, err := w.Write(header); err != nil {
		return Handle{}, err
	}
	if _, err := w.Write(payload); err != nil {
		return Handle{}, err
	}
	trailer := make([]byte, TrailerLen)
	binary.BigEndian.PutUint32(trailer, sum.Value())
	if _, err := w.Write(trailer); err != nil {
		return Handle{}, err
	}

	return Handle{Offset: uint64(offset), Length: uint32(HeaderLen + len(payload) + TrailerLen)}, nil
}

// ReadRecord fetches and validates the block record at h, decompressing it
// if needed, and returns the block's declared type along with its raw
// (uncompressed) payload.
func ReadRecord(r io.ReaderAt, h Handle) (Type, []byte, error) {
	if h.Length < HeaderLen+TrailerLen {
		return 0, nil, base.CorruptionErrorf("block: record too short at offset %d", h.Offset)
	}
	buf := make([]byte, h.Length)
	if _, err := r.ReadAt(buf, int64(h.Offset)); err != nil {
		return 0, nil, base.WrapIO(err, "block: read record at offset %d", h.Offset)
	}

	header := buf[:HeaderLen]
	payload := buf[HeaderLen : len(buf)-TrailerLen]
	trailer := buf[len(buf)-TrailerLen:]

	compressedSize := binary.BigEndian.Uint32(header[0:4])
	uncompressedSize := binary.BigEndian.Uint32(header[4:8])
	typ := Type(header[8])
	flags := header[9]
	reserved := binary.BigEndian.Uint16(header[10:12])

	if reserved != 0 || flags&^knownFlagsMask != 0 {
		return 0, nil, base.CorruptionErrorf("block: unknown block flags at offset %d", h.Offset)
	}
	if int(compressedSize) != len(payload) {
		return 0, nil, base.CorruptionErrorf("block: header size mismatch at offset %d", h.Offset)
	}

	sum := crc.New(header).Update(payload)
	if sum.Value() != binary.BigEndian.Uint32(trailer) {
		return 0, nil, base.CorruptionErrorf("block: CRC mismatch at offset %d", h.Offset)
	}

	if flags&flagCompressed != 0 {
		raw, err := codec.Zstd.Decompress(nil, payload, int(uncompressedSize))
		if err != nil {
			return 0, nil, base.WrapCorruption(err, "block: decompress at offset %d", h.Offset)
		}
		return typ, raw, nil
	}
	return typ, payload, nil
}
