package sstable

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/VinhDuyLe/bigtable/internal/bloom"
)

// openMmapFilter memory-maps a .bf sidecar file and parses it in place,
// avoiding a copy of the (potentially large) bit array into the heap. The
// returned mmap.MMap is owned by the caller, which must Unmap it when the
// filter is no longer needed.
func openMmapFilter(path string) (*bloom.Filter, mmap.MMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	filter, err := bloom.UnmarshalSidecar(m)
	if err != nil {
		m.Unmap()
		return nil, nil, err
	}
	return filter, m, nil
}
