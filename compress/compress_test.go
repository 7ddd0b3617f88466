package compress_test

import (
	"bytes"
	"testing"

	"github.com/i2y/grpcconn/compress"
)

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 50)

	for _, name := range []string{compress.Gzip, compress.Deflate, compress.Zstd} {
		t.Run(name, func(t *testing.T) {
			c, ok := compress.Get(name)
			if !ok {
				t.Fatalf("compressor %q not registered", name)
			}

			compressed, err := c.Compress(payload)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}

			decompressed, err := c.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}

			if !bytes.Equal(decompressed, payload) {
				t.Errorf("round trip mismatch for %s", name)
			}
		})
	}
}

func TestEmptyPayload(t *testing.T) {
	c, _ := compress.Get(compress.Gzip)
	out, err := c.Compress(nil)
	if err != nil || len(out) != 0 {
		t.Errorf("Compress(nil) = %v, %v; want empty, nil", out, err)
	}
}

func TestUnknownCompressor(t *testing.T) {
	if _, ok := compress.Get("brotli"); ok {
		t.Error("expected brotli to be unregistered")
	}
}
