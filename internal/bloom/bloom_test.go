package bloom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndMightContain(t *testing.T) {
	f := New(1<<16, 4)
	present := make([][]byte, 0, 200)
	for i := 0; i < 200; i++ {
		k := []byte(fmt.Sprintf("key-%04d", i))
		f.Add(k)
		present = append(present, k)
	}

	for _, k := range present {
		require.True(t, f.MightContain(k), "expected %s to be reported present", k)
	}
}

func TestMightContainNeverFalseNegative(t *testing.T) {
	f := New(1<<12, 4)
	keys := make([][]byte, 0, 50)
	for i := 0; i < 50; i++ {
		k := []byte(fmt.Sprintf("present-%d", i))
		f.Add(k)
		keys = append(keys, k)
	}
	// Soundness property: every added key must still test positive no
	// matter how full the filter gets.
	for i := 0; i < 5000; i++ {
		f.Add([]byte(fmt.Sprintf("filler-%d", i)))
	}
	for _, k := range keys {
		require.True(t, f.MightContain(k))
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	f := New(1<<10, 4)
	f.Add([]byte("alpha"))
	f.Add([]byte("beta"))

	buf := f.MarshalSidecar()
	got, err := UnmarshalSidecar(buf)
	require.NoError(t, err)

	require.True(t, got.MightContain([]byte("alpha")))
	require.True(t, got.MightContain([]byte("beta")))
}

func TestUnmarshalSidecarBadMagic(t *testing.T) {
	f := New(64, 2)
	buf := f.MarshalSidecar()
	buf[0] ^= 0xFF
	_, err := UnmarshalSidecar(buf)
	require.Error(t, err)
}

func TestUnmarshalSidecarTruncated(t *testing.T) {
	_, err := UnmarshalSidecar([]byte{1, 2, 3})
	require.Error(t, err)
}
