package compress

import (
	"compress/flate"
	"fmt"
	"io"
)

type deflateCompressor struct{}

func (deflateCompressor) Name() string { return Deflate }

func (deflateCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	buf := getBuffer()
	defer putBuffer(buf)

	fw, err := flate.NewWriter(buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("deflate compress init: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("deflate compress write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("deflate compress close: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (deflateCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	fr := flate.NewReader(bytesReader(data))
	defer fr.Close()

	buf := getBuffer()
	defer putBuffer(buf)

	if _, err := io.Copy(buf, fr); err != nil {
		return nil, fmt.Errorf("deflate decompress read: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
