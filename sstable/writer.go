package sstable

import (
	"bytes"

	"github.com/google/renameio"

	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/internal/block"
	"github.com/VinhDuyLe/bigtable/internal/bloom"
	"github.com/VinhDuyLe/bigtable/internal/codec"
)

// headerPad is a reserved zero-filled region at the start of the file,
// mirroring the space pebble's own sstable format reserves ahead of the
// first block for a future superblock without a format bump.
const headerPad = 64

type indexEntry struct {
	firstKey []byte
	offset   uint64
	length   uint32
}

// Writer builds one SST file. Entries must be added in non-decreasing key
// order; Close flushes, writes the footer and sidecar, and atomically
// publishes the file via rename.
type Writer struct {
	opts WriterOptions
	path string

	tmp    *renameio.PendingFile
	offset int64

	data       *blockBuilder
	filter     *bloom.Filter
	index      []indexEntry
	lastKey    []byte
	hasLast    bool
	entries    int
	uniqueKeys map[string]struct{}

	sharderName   string
	sharderConfig []byte
	numShards     int

	closed bool
}

// NewWriter creates the .tmp file that will become path on a successful
// Close.
func NewWriter(path string, opts WriterOptions) (*Writer, error) {
	opts = opts.EnsureDefaults()
	f, err := renameio.TempFile("", path)
	if err != nil {
		return nil, base.WrapIO(err, "sstable: create temp file for %s", path)
	}
	if _, err := f.Write(make([]byte, headerPad)); err != nil {
		f.Cleanup()
		return nil, base.WrapIO(err, "sstable: write header pad for %s", path)
	}
	return &Writer{
		opts:       opts,
		path:       path,
		tmp:        f,
		offset:     headerPad,
		data:       newBlockBuilder(opts.RestartInterval),
		filter:     bloom.New(opts.BloomBits, opts.BloomHashes),
		uniqueKeys: make(map[string]struct{}),
	}, nil
}

// Set appends one entry. Keys must be non-decreasing across the lifetime of
// the writer, including across flushed blocks.
func (w *Writer) Set(key, value []byte) error {
	if w.hasLast && bytes.Compare(key, w.lastKey) < 0 {
		return base.InvalidInputErrorf("sstable: out of order key %q after %q", key, w.lastKey)
	}
	if w.data.empty() {
		w.index = append(w.index, indexEntry{firstKey: append([]byte(nil), key...), offset: uint64(w.offset)})
	}

	w.data.add(key, value)
	w.filter.Add(key)
	w.lastKey = append(w.lastKey[:0], key...)
	w.hasLast = true
	w.entries++
	if _, ok := w.uniqueKeys[string(key)]; !ok {
		w.uniqueKeys[string(key)] = struct{}{}
	}

	if w.data.estimatedSize() >= w.opts.BlockSize {
		if err := w.flushBlock(); err != nil {
			return err
		}
	}
	return nil
}

// flushBlock writes the active data block to disk and resets the builder
// for the next one.
func (w *Writer) flushBlock() error {
	if w.data.empty() {
		return nil
	}
	raw := w.data.finish()
	h, err := w.writeBlock(block.Data, raw, true)
	if err != nil {
		return err
	}
	w.index[len(w.index)-1].length = h.Length
	w.data.reset()
	return nil
}

// writeBlock frames and writes one block record. Compression is only ever
// offered for data blocks: the filter block must carry the same raw bloom
// payload bytes as the .bf sidecar, and the index and meta blocks are kept
// uncompressed since they're small relative to the data they describe.
func (w *Writer) writeBlock(typ block.Type, raw []byte, allowCompression bool) (block.Handle, error) {
	var compressed []byte
	if allowCompression && !w.opts.DisableCompression {
		compressed = codec.Zstd.Compress(nil, raw, w.opts.CompressionLevel)
	}
	h, err := block.WriteRecord(w.tmp, typ, raw, compressed, w.offset)
	if err != nil {
		return block.Handle{}, base.WrapIO(err, "sstable: write block")
	}
	w.offset += int64(h.Length)
	return h, nil
}

func encodeIndexBlock(entries []indexEntry) []byte {
	var buf []byte
	for _, e := range entries {
		buf = codec.AppendUvarint32(buf, uint32(len(e.firstKey)))
		buf = append(buf, e.firstKey...)
		var tmp [12]byte
		putUint64(tmp[0:8], e.offset)
		putUint32(tmp[8:12], e.length)
		buf = append(buf, tmp[:]...)
	}
	return buf
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func putUint32(b []byte, v uint32) {
	for i := 3; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// SetMetadata records sharder identity ahead of Close, for sharded tables.
// Unsharded writers can leave this unset.
func (w *Writer) SetMetadata(sharderName string, sharderConfig []byte, numShards int) {
	w.sharderName = sharderName
	w.sharderConfig = sharderConfig
	w.numShards = numShards
}

// Close flushes any residual block, emits the filter/index/meta blocks and
// footer, fsyncs and atomically publishes the file, and writes the Bloom
// sidecar. On a failure up to and including the publish step the .tmp file
// is removed and path is left untouched; the sidecar is written after
// publication, so a sidecar failure leaves path published without its .bf.
func (w *Writer) Close() (err error) {
	if w.closed {
		return nil
	}
	w.closed = true
	defer func() {
		if err != nil {
			w.tmp.Cleanup()
		}
	}()

	if err = w.flushBlock(); err != nil {
		return err
	}

	filterPayload := w.filter.MarshalSidecar()
	filterHandle, err := w.writeBlock(block.Filter, filterPayload, false)
	if err != nil {
		return err
	}

	indexHandle, err := w.writeBlock(block.Index, encodeIndexBlock(w.index), false)
	if err != nil {
		return err
	}

	meta := Metadata{
		SharderName:   w.sharderName,
		SharderConfig: w.sharderConfig,
		NumShards:     w.numShards,
		EntryCount:    w.entries,
		UniqueKeys:    len(w.uniqueKeys),
		Creator:       "bigtable/sstable",
	}
	metaHandle, err := w.writeBlock(block.Meta, meta.encode(), false)
	if err != nil {
		return err
	}

	f := footer{
		version:      formatVersion,
		indexHandle:  indexHandle,
		filterHandle: filterHandle,
		metaHandle:   metaHandle,
	}
	if _, err = w.tmp.Write(f.encode()); err != nil {
		return base.WrapIO(err, "sstable: write footer for %s", w.path)
	}

	if err = w.tmp.CloseAtomicallyReplace(); err != nil {
		return base.WrapIO(err, "sstable: publish %s", w.path)
	}

	if err = renameio.WriteFile(w.path+".bf", filterPayload, 0o644); err != nil {
		return base.WrapIO(err, "sstable: write bloom sidecar for %s", w.path)
	}
	return nil
}

// Abort discards the writer without publishing anything, removing the
// temporary file.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	w.tmp.Cleanup()
}
