package frame

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/i2y/grpcconn/compress"
	"github.com/i2y/grpcconn/status"
)

// Decoder turns wire bytes for one message back into M — the external
// codec collaborator's decoder().
type Decoder[M any] func(data []byte) (M, error)

// DecodeOptions configures the Streaming Decoder.
type DecodeOptions struct {
	// Encoding is the negotiated grpc-encoding the peer uses for
	// compressed frames (already validated against the accept set by the
	// dispatcher before the decoder is constructed).
	Encoding string
	// MaxDecodeSize caps the pre-decompression... no: the *declared*
	// frame length, matching spec invariant 5 ("never surfaces a decoded
	// message whose payload exceeds the configured max"); 0 = unlimited.
	MaxDecodeSize int
}

// Streaming consumes a framed gRPC response body and yields decoded
// messages, terminating with the status carried in trailers (or, for an
// empty/trailer-only response, an immediately exhausted sequence).
type Streaming[M any] struct {
	body    io.ReadCloser
	header  http.Header
	trailer http.Header
	decode  Decoder[M]
	opts    DecodeOptions

	empty         bool
	done          bool
	trailerStatus *status.Status
}

// NewStreaming builds a Streaming decoder that expects trailers: it reads
// frames until the body signals EOF, then consumes resp.Trailer for the
// final grpc-status/grpc-message.
func NewStreaming[M any](resp *http.Response, decode Decoder[M], opts DecodeOptions) *Streaming[M] {
	return &Streaming[M]{
		body:    resp.Body,
		header:  resp.Header,
		trailer: resp.Trailer,
		decode:  decode,
		opts:    opts,
	}
}

// NewEmpty builds a Streaming decoder for a trailer-only response: the
// final status already arrived in headers, so the body is never touched
// (spec invariant 6).
func NewEmpty[M any](decode Decoder[M]) *Streaming[M] {
	return &Streaming[M]{decode: decode, empty: true, done: true}
}

// Next returns the next decoded message, or io.EOF once the stream ends
// successfully, or the terminal *status.Status if the call failed.
func (s *Streaming[M]) Next(ctx context.Context) (M, error) {
	var zero M

	if s.empty {
		return zero, io.EOF
	}
	if s.done {
		if s.trailerStatus != nil && !s.trailerStatus.Ok() {
			return zero, s.trailerStatus
		}
		return zero, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	f, err := ReadFrame(s.body, s.opts.MaxDecodeSize)
	if err == io.EOF {
		return zero, s.finish()
	}
	if err != nil {
		s.done = true
		return zero, err
	}

	data := f.Data
	if f.Compressed {
		if s.opts.Encoding == "" {
			s.done = true
			return zero, status.Internal("received compressed frame but no grpc-encoding was negotiated")
		}
		c, ok := compress.Get(s.opts.Encoding)
		if !ok {
			s.done = true
			return zero, status.Unimplemented(fmt.Sprintf("unsupported grpc-encoding %q", s.opts.Encoding))
		}
		data, err = c.Decompress(data)
		if err != nil {
			s.done = true
			return zero, status.Newf(status.CodeInternal, "decompress message: %v", err)
		}
	}

	msg, err := s.decode(data)
	if err != nil {
		s.done = true
		return zero, status.Newf(status.CodeInternal, "decode message: %v", err)
	}
	return msg, nil
}

// finish reads trailers once the body is exhausted and records the
// terminal status. It returns io.EOF if the call succeeded.
func (s *Streaming[M]) finish() error {
	s.done = true
	st := status.FromHeader(s.trailer)
	if st == nil {
		st = status.Internal("missing grpc-status trailer")
	}
	s.trailerStatus = st
	if !st.Ok() {
		return st
	}
	return io.EOF
}

// TrailerStatus returns the terminal status once the stream has finished
// (nil before then).
func (s *Streaming[M]) TrailerStatus() *status.Status {
	return s.trailerStatus
}

// Close releases the underlying body without reading the rest of it —
// used on caller-initiated cancellation (spec §5's "dropping the returned
// call future" semantics).
func (s *Streaming[M]) Close() error {
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}
