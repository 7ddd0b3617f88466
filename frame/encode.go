package frame

import (
	"context"
	"fmt"
	"io"

	"github.com/i2y/grpcconn/compress"
	"github.com/i2y/grpcconn/status"
	"github.com/i2y/grpcconn/stream"
)

// Encoder turns one message into its wire bytes — the external codec
// collaborator named in the spec ("encoder() writes one message into a
// byte buffer"), provided by the caller's codec.Pair.
type Encoder[M any] func(msg M) ([]byte, error)

// EncodeOptions configures Encode Body.
type EncodeOptions struct {
	// Compression names the send-compression algorithm, or "" for none.
	Compression string
	// MaxEncodeSize caps the post-compression frame payload; 0 = unlimited.
	MaxEncodeSize int
}

// EncodeBody pipes a lazy sequence of outgoing messages through the codec
// encoder and gRPC framing, producing an io.ReadCloser suitable as an
// http.Request body. It never buffers the whole stream: frames are written
// to an io.Pipe as each message becomes available, so cancellation of ctx
// (or of the request) unblocks the producer goroutine immediately.
func EncodeBody[M any](ctx context.Context, src stream.Source[M], encode Encoder[M], opts EncodeOptions) io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		err := encodeLoop(ctx, src, encode, opts, pw)
		_ = pw.CloseWithError(err)
	}()

	return pr
}

// encodeLoop returns nil on a clean io.EOF from the source.
func encodeLoop[M any](ctx context.Context, src stream.Source[M], encode Encoder[M], opts EncodeOptions, w io.Writer) error {
	for {
		msg, err := src.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		raw, err := encode(msg)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}

		compressed := false
		if opts.Compression != "" && len(raw) >= compress.DefaultThreshold {
			c, ok := compress.Get(opts.Compression)
			if !ok {
				return status.Newf(status.CodeInternal, "unknown send compression %q", opts.Compression)
			}
			out, err := c.Compress(raw)
			if err != nil {
				return fmt.Errorf("compress message: %w", err)
			}
			raw = out
			compressed = true
		}

		if opts.MaxEncodeSize > 0 && len(raw) > opts.MaxEncodeSize {
			return status.Newf(status.CodeResourceExhausted,
				"message after encoding is %d bytes, exceeds maximum of %d", len(raw), opts.MaxEncodeSize)
		}

		if err := WriteFrame(w, Frame{Compressed: compressed, Data: raw}); err != nil {
			return err
		}
	}
}
