package sstable

import (
	"encoding/binary"

	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/internal/block"
)

// magic is the footer's trailing 8 bytes, the last thing readFooter checks
// and the cheapest "is this even our file" guard against truncated or
// foreign files.
const magic uint64 = 0x415453535441424C // big-endian bytes spell "ATSSTABL"

// formatVersion is bumped whenever the on-disk layout changes in a way a
// reader must branch on. There is exactly one version today.
const formatVersion uint32 = 1

// footerLen is the fixed size of the trailing footer, regardless of format
// version: 4 (version) + 3*(8+4) (handles) + 8 (magic).
const footerLen = 4 + 3*12 + 8

// footer is the fully-parsed trailing record of an SST file.
type footer struct {
	version     uint32
	indexHandle block.Handle
	filterHandle block.Handle
	metaHandle  block.Handle
}

func (f footer) encode() []byte {
	buf := make([]byte, footerLen)
	binary.BigEndian.PutUint32(buf[0:4], f.version)
	encodeHandle(buf[4:16], f.indexHandle)
	encodeHandle(buf[16:28], f.filterHandle)
	encodeHandle(buf[28:40], f.metaHandle)
	binary.BigEndian.PutUint64(buf[40:48], magic)
	return buf
}

func encodeHandle(buf []byte, h block.Handle) {
	binary.BigEndian.PutUint64(buf[0:8], h.Offset)
	binary.BigEndian.PutUint32(buf[8:12], h.Length)
}

func decodeHandle(buf []byte) block.Handle {
	return block.Handle{
		Offset: binary.BigEndian.Uint64(buf[0:8]),
		Length: binary.BigEndian.Uint32(buf[8:12]),
	}
}

// parseFooter validates and decodes a footerLen-byte buffer read from the
// tail of an SST file.
func parseFooter(buf []byte, path string) (footer, error) {
	if len(buf) != footerLen {
		return footer{}, base.CorruptionErrorf("sstable: %s: short footer", path)
	}
	got := binary.BigEndian.Uint64(buf[40:48])
	if got != magic {
		return footer{}, base.CorruptionErrorf("sstable: %s: bad footer magic", path)
	}
	f := footer{
		version:      binary.BigEndian.Uint32(buf[0:4]),
		indexHandle:  decodeHandle(buf[4:16]),
		filterHandle: decodeHandle(buf[16:28]),
		metaHandle:   decodeHandle(buf[28:40]),
	}
	if f.version != formatVersion {
		return footer{}, base.CorruptionErrorf("sstable: %s: unsupported format version %d", path, f.version)
	}
	return f, nil
}
