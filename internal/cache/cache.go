// Package cache implements the segmented, byte-budgeted block cache shared
// by every open SST reader. Splitting the cache into independently locked
// segments bounds lock contention across concurrent readers; each segment
// manages its own LRU order and evicts purely on bytes held, not entry count,
// since block sizes vary widely between data, index, and filter blocks.
package cache

import (
	"runtime"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/VinhDuyLe/bigtable/internal/base"
)

// evictionStormThreshold is the number of evictions in a single Set call
// past which Cache logs a diagnostic; below it, eviction is just ordinary
// steady-state churn and not worth a log line.
const evictionStormThreshold = 8

// Key identifies a cached block by the file it came from and its offset.
type Key struct {
	FileNum uint64
	Offset  uint64
}

func (k Key) hash() uint64 {
	var buf [16]byte
	putUint64(buf[0:8], k.FileNum)
	putUint64(buf[8:16], k.Offset)
	return xxhash.Sum64(buf[:])
}

func putUint64(b []byte, v uint64) {
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}

// spread routes a hash into a segment index, folding the high bits into the
// low bits so the table's already-good avalanche isn't wasted by masking.
func spread(h uint64, numSegments uint64) uint64 {
	h ^= h >> 16
	return h & (numSegments - 1)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func defaultNumSegments() int {
	return clamp(nextPow2(2*runtime.NumCPU()), 8, 64)
}

type entry struct {
	value []byte
	size  int64
}

type segment struct {
	mu       sync.Mutex
	lru      *lru.LRU[Key, entry]
	size     int64
	capacity int64
	hits     uint64
	misses   uint64
	evicted  uint64
}

// Cache is a fixed-capacity, segmented LRU cache of block contents keyed by
// (file, offset).
type Cache struct {
	segments []*segment
	logger   base.Logger
}

// Option configures a Cache at construction.
type Option func(*options)

type options struct {
	numSegments int
	logger      base.Logger
}

// WithSegments overrides the default power-of-two segment count.
func WithSegments(n int) Option {
	return func(o *options) { o.numSegments = nextPow2(n) }
}

// WithLogger injects a logger used for eviction-storm diagnostics. Without
// this option, Cache logs nothing.
func WithLogger(l base.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a Cache with the given total byte capacity, split evenly
// across segments.
func New(capacityBytes int64, opts ...Option) *Cache {
	o := options{numSegments: defaultNumSegments()}
	for _, fn := range opts {
		fn(&o)
	}

	c := &Cache{segments: make([]*segment, o.numSegments), logger: o.logger}
	perSegment := capacityBytes / int64(o.numSegments)
	if perSegment < 1 {
		perSegment = 1
	}
	for i := range c.segments {
		s := &segment{capacity: perSegment}
		// simplelru requires a bounded element count; we never let it evict
		// on our behalf (size is unbounded) and instead evict by byte budget
		// ourselves in Set, oldest entry first via RemoveOldest.
		l, _ := lru.NewLRU[Key, entry](1<<31-1, s.onEvict)
		s.lru = l
		c.segments[i] = s
	}
	return c
}

// onEvict runs for every entry simplelru drops: RemoveOldest, Remove, and
// Purge alike, so it also counts explicit removals and replacements.
func (s *segment) onEvict(_ Key, e entry) {
	s.size -= e.size
	s.evicted++
}

func (c *Cache) segmentFor(k Key) *segment {
	return c.segments[spread(k.hash(), uint64(len(c.segments)))]
}

// Get returns the cached value for k, if present.
func (c *Cache) Get(k Key) ([]byte, bool) {
	s := c.segmentFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Get(k)
	if !ok {
		s.misses++
		return nil, false
	}
	s.hits++
	return e.value, true
}

// Set inserts a copy of value under k, evicting the segment's oldest entries
// until the byte budget is satisfied. An empty value or one larger than the segment's
// own byte budget is not worth caching and is silently skipped rather than
// stored and immediately evicted.
func (c *Cache) Set(k Key, value []byte) {
	s := c.segmentFor(k)
	if len(value) == 0 || int64(len(value)) > s.capacity {
		return
	}

	s.mu.Lock()
	// Remove runs onEvict, which already subtracts the old entry's size.
	s.lru.Remove(k)
	e := entry{value: append([]byte(nil), value...), size: int64(len(value))}
	s.lru.Add(k, e)
	s.size += e.size
	var evicted int
	for s.size > s.capacity && s.lru.Len() > 1 {
		s.lru.RemoveOldest()
		evicted++
	}
	s.mu.Unlock()

	if evicted > evictionStormThreshold && c.logger != nil {
		c.logger.Infof("cache: evicted %d entries in one insert (segment over budget)", evicted)
	}
}

// Remove evicts k from the cache, if present.
func (c *Cache) Remove(k Key) {
	s := c.segmentFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	// Remove runs onEvict, which subtracts the entry's size.
	s.lru.Remove(k)
}

// Clear empties every segment, discarding all cached entries and resetting
// hit/miss/eviction counters.
func (c *Cache) Clear() {
	for _, s := range c.segments {
		s.mu.Lock()
		s.lru.Purge()
		s.size = 0
		s.hits = 0
		s.misses = 0
		s.evicted = 0
		s.mu.Unlock()
	}
}

// Metrics reports aggregate cache statistics across all segments.
type Metrics struct {
	Hits, Misses, Evicted uint64
	Size, Capacity        int64
}

// Metrics returns a point-in-time snapshot of cache statistics.
func (c *Cache) Metrics() Metrics {
	var m Metrics
	for _, s := range c.segments {
		s.mu.Lock()
		m.Hits += s.hits
		m.Misses += s.misses
		m.Evicted += s.evicted
		m.Size += s.size
		m.Capacity += s.capacity
		s.mu.Unlock()
	}
	return m
}
