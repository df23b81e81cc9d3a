package codec

import "github.com/VinhDuyLe/bigtable/internal/base"

// maxVarintLen32 is the longest a uvarint32 encoding of a uint32 is ever
// allowed to be on the wire: 5 groups of 7 bits.
const maxVarintLen32 = 5

// AppendUvarint32 appends the unsigned LEB128 encoding of v to dst.
func AppendUvarint32(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// ReadUvarint32 decodes an unsigned LEB128 varint from the front of buf,
// returning the value and the number of bytes consumed. It fails with a
// Corruption error if the varint runs past 5 bytes or past the end of buf.
func ReadUvarint32(buf []byte) (v uint32, n int, err error) {
	var shift uint
	for i := 0; i < len(buf); i++ {
		if i == maxVarintLen32 {
			return 0, 0, base.CorruptionErrorf("codec: varint too long")
		}
		b := buf[i]
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, base.CorruptionErrorf("codec: varint truncated")
}
