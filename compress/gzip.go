package compress

import (
	"compress/gzip"
	"fmt"
	"io"
	"sync"
)

var gzipWriterPool = sync.Pool{New: func() any { return gzip.NewWriter(nil) }}
var gzipReaderPool = sync.Pool{New: func() any { return new(gzip.Reader) }}

type gzipCompressor struct{}

func (gzipCompressor) Name() string { return Gzip }

func (gzipCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	buf := getBuffer()
	defer putBuffer(buf)

	gz := gzipWriterPool.Get().(*gzip.Writer)
	gz.Reset(buf)
	defer gzipWriterPool.Put(gz)

	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress write: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress close: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (gzipCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	gz := gzipReaderPool.Get().(*gzip.Reader)
	defer gzipReaderPool.Put(gz)

	if err := gz.Reset(bytesReader(data)); err != nil {
		return nil, fmt.Errorf("gzip decompress reset: %w", err)
	}

	buf := getBuffer()
	defer putBuffer(buf)

	if _, err := io.Copy(buf, gz); err != nil {
		return nil, fmt.Errorf("gzip decompress read: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
