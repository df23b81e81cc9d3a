package sstable

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata is the parsed contents of an SST's meta block: the sharder
// identity (if any) and basic accounting, written by the Writer and read
// back verbatim by Open. Path is not part of the on-disk meta block itself
// (a table doesn't know its own path until opened); Reader.Open fills it in
// from the path passed to it.
type Metadata struct {
	Path          string
	SharderName   string
	SharderConfig []byte
	NumShards     int
	EntryCount    int
	UniqueKeys    int
	Creator       string
}

// encode renders Metadata as the small textual payload stored in the meta
// block: one "key: value" pair per line, matching the kind of human-
// readable metadata block pebble itself emits for its own table
// properties.
func (m Metadata) encode() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "sharder_name: %s\n", m.SharderName)
	fmt.Fprintf(&b, "sharder_config: %x\n", m.SharderConfig)
	fmt.Fprintf(&b, "num_shards: %d\n", m.NumShards)
	fmt.Fprintf(&b, "entry_count: %d\n", m.EntryCount)
	fmt.Fprintf(&b, "unique_keys: %d\n", m.UniqueKeys)
	fmt.Fprintf(&b, "creator: %s\n", m.Creator)
	return []byte(b.String())
}

func decodeMetadata(buf []byte) (Metadata, error) {
	var m Metadata
	for _, line := range strings.Split(string(buf), "\n") {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "sharder_name":
			m.SharderName = value
		case "sharder_config":
			raw := make([]byte, len(value)/2)
			for i := range raw {
				b, err := strconv.ParseUint(value[2*i:2*i+2], 16, 8)
				if err != nil {
					return Metadata{}, err
				}
				raw[i] = byte(b)
			}
			m.SharderConfig = raw
		case "num_shards":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Metadata{}, err
			}
			m.NumShards = n
		case "entry_count":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Metadata{}, err
			}
			m.EntryCount = n
		case "unique_keys":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Metadata{}, err
			}
			m.UniqueKeys = n
		case "creator":
			m.Creator = value
		}
	}
	return m, nil
}
