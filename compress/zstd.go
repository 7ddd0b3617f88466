package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdCompressor wraps klauspost/compress/zstd's single-shot encoder and
// decoder, which are themselves internally pooled/concurrency-safe, so no
// extra sync.Pool layer is needed on top (unlike gzip/deflate, whose
// stdlib readers/writers are not safe to share without one).
type zstdCompressor struct{}

func (zstdCompressor) Name() string { return Zstd }

func (zstdCompressor) Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd compress init: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func (zstdCompressor) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress init: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
