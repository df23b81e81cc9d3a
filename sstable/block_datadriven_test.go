package sstable

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
)

// TestBlockDataDriven exercises blockBuilder/blockReader against scenario
// files under testdata/, following the teacher's convention of describing
// block-level fixtures as build/get/scan command scripts rather than
// hand-written Go table tests.
func TestBlockDataDriven(t *testing.T) {
	var block []byte

	datadriven.RunTest(t, "testdata/block", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "build":
			restartInterval := 16
			td.MaybeScanArgs(t, "restart-interval", &restartInterval)
			b := newBlockBuilder(restartInterval)
			for _, line := range strings.Split(strings.TrimSpace(td.Input), "\n") {
				if line == "" {
					continue
				}
				k, v, _ := strings.Cut(line, ":")
				b.add([]byte(k), []byte(v))
			}
			restarts := len(b.restarts)
			block = b.finish()
			return fmt.Sprintf("entries built, restarts=%d\n", restarts)

		case "get":
			var key string
			td.ScanArgs(t, "key", &key)
			r, err := newBlockReader(block)
			if err != nil {
				return fmt.Sprintf("error: %s\n", err)
			}
			v, found, err := r.get([]byte(key))
			if err != nil {
				return fmt.Sprintf("error: %s\n", err)
			}
			if !found {
				return "not found\n"
			}
			return fmt.Sprintf("%s\n", v)

		case "scan":
			r, err := newBlockReader(block)
			if err != nil {
				return fmt.Sprintf("error: %s\n", err)
			}
			it := newBlockIter(r, nil, nil)
			var b strings.Builder
			for it.Valid() {
				fmt.Fprintf(&b, "%s:%s\n", it.Key(), it.Value())
				it.Next()
			}
			if it.Err() != nil {
				return fmt.Sprintf("error: %s\n", it.Err())
			}
			return b.String()

		default:
			t.Fatalf("unknown command: %s", td.Cmd)
			return ""
		}
	})
}
