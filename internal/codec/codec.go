// Package codec implements the small leaf encodings the sstable format
// builds on: unsigned LEB128 varints (this file's sibling varint.go) and the
// pluggable block compressor.
package codec

// Compressor is the contract a block compression scheme must satisfy. The
// writer calls Compress per block and keeps the result only if it is
// strictly smaller than the raw payload; the reader calls Decompress with
// the uncompressed size recorded in the block header so it can catch a
// corrupt stream instead of silently truncating or over-reading.
type Compressor interface {
	Name() string
	Compress(dst, src []byte, level int) []byte
	Decompress(dst, src []byte, uncompressedSize int) ([]byte, error)
}
