// Package frame implements the gRPC HTTP/2 body wire format: a sequence of
// length-prefixed, optionally compressed messages, adapted from the
// teacher's gateway.grpcWebFrame[Reader|Writer] (which frames gRPC-Web the
// same way, plus a trailer-frame flag this module doesn't use) and from
// rpc.handleGRPCRequest's pooled frame-header parsing.
package frame

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/i2y/grpcconn/status"
)

// HeaderSize is the fixed 5-byte frame header: 1 compression flag byte
// followed by a 4-byte big-endian length.
const HeaderSize = 5

// flagCompressed/flagUncompressed are the only two valid values of the
// frame's compression flag byte on the standard gRPC wire (grpc-web's
// 0x80 trailer-frame flag does not apply here).
const (
	flagUncompressed = 0x00
	flagCompressed   = 0x01
)

// Frame is one on-the-wire gRPC message frame.
type Frame struct {
	Compressed bool
	Data       []byte
}

// WriteFrame writes one frame's header and payload to w.
func WriteFrame(w io.Writer, f Frame) error {
	var header [HeaderSize]byte
	if f.Compressed {
		header[0] = flagCompressed
	}
	binary.BigEndian.PutUint32(header[1:], uint32(len(f.Data)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if len(f.Data) > 0 {
		if _, err := w.Write(f.Data); err != nil {
			return fmt.Errorf("write frame payload: %w", err)
		}
	}
	return nil
}

// ReadFrame reads one frame from r. It returns io.EOF (unwrapped) when the
// body is exhausted between frames, so callers can distinguish "no more
// frames" from a mid-frame read failure. maxSize <= 0 means unlimited; a
// frame whose declared length exceeds maxSize fails with a ResourceExhausted
// *status.Status without reading the (potentially huge) payload.
func ReadFrame(r io.Reader, maxSize int) (Frame, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("read frame header: %w", err)
	}

	flag := header[0]
	if flag != flagUncompressed && flag != flagCompressed {
		return Frame{}, status.Internal(fmt.Sprintf("unknown frame compression flag %#x", flag))
	}
	length := binary.BigEndian.Uint32(header[1:])

	if maxSize > 0 && int(length) > maxSize {
		return Frame{}, status.Newf(status.CodeResourceExhausted,
			"received message larger than max (%d vs. %d)", length, maxSize)
	}

	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return Frame{}, fmt.Errorf("read frame payload: %w", err)
		}
	}

	return Frame{Compressed: flag == flagCompressed, Data: data}, nil
}
