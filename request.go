package grpcconn

import (
	"context"
	"io"
	"net/http"

	"github.com/i2y/grpcconn/status"
	"github.com/i2y/grpcconn/stream"
)

// Request bundles the outgoing metadata with the payload for one call:
// either a single message (use NewRequest) or a lazy sequence of
// messages (use NewStreamRequest) for the client-stream/bidi shapes.
type Request[M any] struct {
	Header http.Header
	body   stream.Source[M]
}

// NewRequest builds a single-message Request.
func NewRequest[M any](msg M) *Request[M] {
	return &Request[M]{Header: http.Header{}, body: stream.One(msg)}
}

// NewStreamRequest builds a Request whose payload is a lazy sequence of
// messages.
func NewStreamRequest[M any](src stream.Source[M]) *Request[M] {
	return &Request[M]{Header: http.Header{}, body: src}
}

// Response bundles response metadata (headers promoted from the HTTP
// response, trailers merged in once the stream finishes) with a lazy,
// finite sequence of decoded messages.
type Response[M any] struct {
	Header  http.Header
	Trailer http.Header
	body    stream.Source[M]
}

// Receive pulls the next message, or io.EOF once the stream ends
// successfully, or the terminal error status otherwise.
func (r *Response[M]) Receive(ctx context.Context) (M, error) {
	return r.body.Next(ctx)
}

// Message reads one message from the response (the shape unary and
// client-streaming calls hand back), failing Internal if none arrived.
// Messages after the first are not read.
func (r *Response[M]) Message(ctx context.Context) (M, error) {
	msg, err := r.body.Next(ctx)
	if err == io.EOF {
		return msg, status.Internal("Missing response message.")
	}
	return msg, err
}
