package crc

import "testing"

func TestUpdateMatchesSinglePass(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	whole := New(data).Value()

	split := New(data[:10]).Update(data[10:]).Value()
	if whole != split {
		t.Fatalf("split update mismatch: %x vs %x", whole, split)
	}
}

func TestSingleByteCorruptionChangesChecksum(t *testing.T) {
	data := []byte("sstable block payload")
	original := New(data).Value()

	corrupted := append([]byte(nil), data...)
	corrupted[3] ^= 0x01
	if New(corrupted).Value() == original {
		t.Fatalf("expected checksum to change after single-byte corruption")
	}
}
