// Package crc wraps the Castagnoli CRC32 (CRC32C) used to protect every
// on-disk block. The standard library's hash/crc32 already dispatches to a
// hardware SSE4.2/ARM64 CRC32C implementation where available and falls back
// to a software table-driven one otherwise, which is exactly the mechanism
// called for — there is no third-party CRC32C package anywhere in the
// corpus this module descends from, so this is the one leaf built directly
// on the standard library.
package crc

import "hash/crc32"

var table = crc32.MakeTable(crc32.Castagnoli)

// CRC is an in-progress or finished CRC32C checksum.
type CRC uint32

// New returns the CRC32C of b.
func New(b []byte) CRC {
	return CRC(crc32.Checksum(b, table))
}

// Update extends the checksum with additional bytes.
func (c CRC) Update(b []byte) CRC {
	return CRC(crc32.Update(uint32(c), table, b))
}

// Value returns the checksum as a plain uint32.
func (c CRC) Value() uint32 { return uint32(c) }
