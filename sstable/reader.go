package sstable

import (
	"bytes"
	"os"
	"sync/atomic"
	"time"

	"github.com/edsrzf/mmap-go"

	"github.com/VinhDuyLe/bigtable/internal/base"
	"github.com/VinhDuyLe/bigtable/internal/block"
	"github.com/VinhDuyLe/bigtable/internal/bloom"
	"github.com/VinhDuyLe/bigtable/internal/cache"
	"github.com/VinhDuyLe/bigtable/internal/codec"
)

var fileNumSeq atomic.Uint64

// Reader serves point and range queries against one immutable, published SST
// file. Any number of readers may be active against the same file; Open's
// index and filter parse happens once and the result is held immutably for
// the Reader's lifetime.
type Reader struct {
	path    string
	fileNum uint64
	f       *os.File
	size    int64

	cache *cache.Cache

	index      []indexEntry
	filter     *bloom.Filter
	filterMmap mmap.MMap // non-nil when filter was loaded via MmapFilter
	meta       Metadata

	opts    ReaderOptions
	latency *cache.LatencyHistogram
}

// Open validates the footer, loads the index and filter blocks, and returns
// a Reader ready to serve Get/NewIter/MightContain.
func Open(path string, opts ReaderOptions) (*Reader, error) {
	opts = opts.ensureDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, base.WrapIO(err, "sstable: open %s", path)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, base.WrapIO(err, "sstable: stat %s", path)
	}
	if stat.Size() < footerLen {
		f.Close()
		return nil, base.CorruptionErrorf("sstable: %s: file shorter than footer", path)
	}

	footerBuf := make([]byte, footerLen)
	if _, err := f.ReadAt(footerBuf, stat.Size()-footerLen); err != nil {
		f.Close()
		return nil, base.WrapIO(err, "sstable: read footer of %s", path)
	}
	ft, err := parseFooter(footerBuf, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	_, indexPayload, err := block.ReadRecord(f, ft.indexHandle)
	if err != nil {
		f.Close()
		return nil, err
	}
	index, err := decodeIndexBlock(indexPayload)
	if err != nil {
		f.Close()
		return nil, err
	}

	var filter *bloom.Filter
	var filterMmap mmap.MMap
	if opts.MmapFilter {
		// A missing or unreadable sidecar is not fatal: fall back to the
		// filter block stored in the file itself.
		filter, filterMmap, _ = openMmapFilter(path + ".bf")
	}
	if filter == nil {
		var filterPayload []byte
		_, filterPayload, err = block.ReadRecord(f, ft.filterHandle)
		if err != nil {
			f.Close()
			return nil, err
		}
		filter, err = bloom.UnmarshalSidecar(filterPayload)
		if err != nil {
			f.Close()
			return nil, err
		}
	}

	_, metaPayload, err := block.ReadRecord(f, ft.metaHandle)
	if err != nil {
		f.Close()
		return nil, err
	}
	meta, err := decodeMetadata(metaPayload)
	if err != nil {
		f.Close()
		return nil, err
	}
	meta.Path = path

	if opts.Logger != nil {
		opts.Logger.Infof("sstable: opened %s: %d blocks, %d entries", path, len(index), meta.EntryCount)
	}

	return &Reader{
		path:       path,
		fileNum:    fileNumSeq.Add(1),
		f:          f,
		size:       stat.Size(),
		cache:      opts.Cache,
		index:      index,
		filter:     filter,
		filterMmap: filterMmap,
		meta:       meta,
		opts:       opts,
		latency:    cache.NewLatencyHistogram(),
	}, nil
}

func decodeIndexBlock(payload []byte) ([]indexEntry, error) {
	var entries []indexEntry
	for len(payload) > 0 {
		keyLen, n, err := codec.ReadUvarint32(payload)
		if err != nil {
			return nil, err
		}
		payload = payload[n:]
		if len(payload) < int(keyLen)+12 {
			return nil, base.CorruptionErrorf("sstable: index block truncated")
		}
		key := append([]byte(nil), payload[:keyLen]...)
		payload = payload[keyLen:]
		offset := getUint64(payload[0:8])
		length := getUint32(payload[8:12])
		payload = payload[12:]
		entries = append(entries, indexEntry{firstKey: key, offset: offset, length: length})
	}
	return entries, nil
}

func getUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func getUint32(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// seekIndex returns the index of the last entry whose firstKey is <= key,
// or -1 if key precedes every block.
func seekIndex(index []indexEntry, key []byte) int {
	lo, hi, best := 0, len(index)-1, -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if bytes.Compare(index[mid].firstKey, key) <= 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// fetchBlock returns the decompressed payload of the data block described by
// entry idx, consulting the cache first. Only the cost of an actual file
// read (a cache miss) is recorded to the latency histogram; cache hits are
// not block fetches.
func (r *Reader) fetchBlock(idx int) (*blockReader, error) {
	e := r.index[idx]
	key := cache.Key{FileNum: r.fileNum, Offset: e.offset}
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return newBlockReader(v)
		}
	}
	start := time.Now()
	_, payload, err := block.ReadRecord(r.f, block.Handle{Offset: e.offset, Length: e.length})
	r.latency.Record(time.Since(start).Microseconds())
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(key, payload)
	}
	return newBlockReader(payload)
}

// Get returns the value for key, or base.ErrNotFound if no entry matches.
func (r *Reader) Get(key []byte) ([]byte, error) {
	if !r.filter.MightContain(key) {
		return nil, base.ErrNotFound
	}
	idx := seekIndex(r.index, key)
	if idx < 0 {
		return nil, base.ErrNotFound
	}
	br, err := r.fetchBlock(idx)
	if err != nil {
		return nil, err
	}
	value, found, err := br.get(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, base.ErrNotFound
	}
	return value, nil
}

// MightContain reports whether key could be present, consulting only the
// Bloom filter.
func (r *Reader) MightContain(key []byte) bool {
	return r.filter.MightContain(key)
}

// Metadata returns the table's recorded metadata.
func (r *Reader) Metadata() Metadata { return r.meta }

// ReaderMetrics reports the cache's aggregate counters alongside this
// Reader's own block-fetch latency distribution.
type ReaderMetrics struct {
	Cache cache.Metrics

	// FetchLatencyP50Micros and FetchLatencyP99Micros summarize the
	// distribution of on-disk block-fetch latency, in microseconds. Cache
	// hits don't contribute a sample, since no fetch happened.
	FetchLatencyP50Micros int64
	FetchLatencyP99Micros int64
}

// Metrics returns a point-in-time snapshot of this Reader's cache and
// block-fetch latency statistics.
func (r *Reader) Metrics() ReaderMetrics {
	m := ReaderMetrics{
		FetchLatencyP50Micros: r.latency.ValueAtQuantile(50),
		FetchLatencyP99Micros: r.latency.ValueAtQuantile(99),
	}
	if r.cache != nil {
		m.Cache = r.cache.Metrics()
	}
	return m
}

// Close releases the file handle and, if the filter was loaded via
// MmapFilter, unmaps its sidecar region. Cache entries for this file become
// unreachable by future opens of the same path but remain valid for readers
// that already hold them.
func (r *Reader) Close() error {
	if r.filterMmap != nil {
		if err := r.filterMmap.Unmap(); err != nil {
			r.f.Close()
			return base.WrapIO(err, "sstable: unmap filter sidecar for %s", r.path)
		}
	}
	return r.f.Close()
}
