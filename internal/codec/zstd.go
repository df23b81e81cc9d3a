package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/VinhDuyLe/bigtable/internal/base"
)

// zstdCodec is the default Compressor. Encoders are cached per level since
// klauspost's zstd.Encoder is relatively expensive to construct and safe for
// concurrent use via EncodeAll; the decoder is shared process-wide for the
// same reason.
type zstdCodec struct {
	encoders sync.Map // level (int) -> *zstd.Encoder
	decoder  *zstd.Decoder
}

// Zstd is the process-wide Zstd Compressor, the default block codec.
var Zstd Compressor = newZstdCodec()

func newZstdCodec() *zstdCodec {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		// Construction of a decoder with no dictionary cannot fail in
		// practice; treat it like other process-fatal init errors.
		panic(err)
	}
	return &zstdCodec{decoder: dec}
}

func (z *zstdCodec) Name() string { return "zstd" }

func (z *zstdCodec) encoderFor(level int) *zstd.Encoder {
	if v, ok := z.encoders.Load(level); ok {
		return v.(*zstd.Encoder)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		panic(err)
	}
	actual, _ := z.encoders.LoadOrStore(level, enc)
	return actual.(*zstd.Encoder)
}

// Compress returns the Zstd-compressed form of src at the given level. The
// caller decides whether to keep it or fall back to the raw payload.
func (z *zstdCodec) Compress(dst, src []byte, level int) []byte {
	return z.encoderFor(level).EncodeAll(src, dst)
}

// Decompress expands src, verifying the result matches uncompressedSize.
func (z *zstdCodec) Decompress(dst, src []byte, uncompressedSize int) ([]byte, error) {
	base0 := len(dst)
	out, err := z.decoder.DecodeAll(src, dst)
	if err != nil {
		return nil, base.WrapIO(err, "codec: zstd decompress")
	}
	if len(out)-base0 != uncompressedSize {
		return nil, base.CorruptionErrorf("codec: decompressed size mismatch: got %d want %d", len(out)-base0, uncompressedSize)
	}
	return out, nil
}
