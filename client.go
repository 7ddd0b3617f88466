package grpcconn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/i2y/grpcconn/codec"
	"github.com/i2y/grpcconn/frame"
	"github.com/i2y/grpcconn/status"
	"github.com/i2y/grpcconn/stream"
	"github.com/i2y/grpcconn/transport"
)

// reservedHeaders cannot be set by a caller-supplied Request.Header — the
// dispatcher owns them, matching the spec's "headers sanitized: reserved
// gRPC/HTTP/2 headers cannot be user-set".
var reservedHeaders = map[string]struct{}{
	"content-type":          {},
	"te":                    {},
	"grpc-encoding":         {},
	"grpc-accept-encoding":  {},
	"grpc-timeout":          {},
	status.HeaderGRPCStatus:  {},
	status.HeaderGRPCMessage: {},
}

// Client is the call dispatcher for one (In, Out) method pair: it maps
// the four call shapes onto a single request/response pipeline through a
// fixed method path and pair of codecs.
type Client[In, Out any] struct {
	path   string
	conn   transport.Transport
	config *Config
	in     codec.Pair[In]
	out    codec.Pair[Out]
}

// New builds a Client for the given method path (e.g.
// "/greet.Greeter/SayHello"), sending over conn, configured by cfg, using
// the in/out codecs.
func New[In, Out any](path string, conn transport.Transport, cfg *Config, in codec.Pair[In], out codec.Pair[Out]) *Client[In, Out] {
	return &Client[In, Out]{path: path, conn: conn, config: cfg, in: in, out: out}
}

// Unary delegates to ClientStream. req is sent as built; NewRequest is what
// lifts a single message into a one-element stream.
func (c *Client[In, Out]) Unary(ctx context.Context, req *Request[In]) (*Response[Out], error) {
	return c.ClientStream(ctx, req)
}

// ClientStream delegates to Stream, then reads exactly one response
// message; zero messages is Internal("Missing response message."), and
// any frames beyond the first are ignored.
func (c *Client[In, Out]) ClientStream(ctx context.Context, req *Request[In]) (*Response[Out], error) {
	resp, err := c.Stream(ctx, req)
	if err != nil {
		return nil, err
	}

	msg, err := resp.body.Next(ctx)
	if err == io.EOF {
		return nil, status.Internal("Missing response message.")
	}
	if err != nil {
		return nil, err
	}

	for k, v := range resp.Trailer {
		resp.Header[k] = v
	}
	resp.body = stream.One(msg)
	return resp, nil
}

// ServerStream delegates to Stream. req is sent as built; NewRequest is
// what lifts a single message into a one-element stream.
func (c *Client[In, Out]) ServerStream(ctx context.Context, req *Request[In]) (*Response[Out], error) {
	return c.Stream(ctx, req)
}

// Stream is the primitive all four call shapes funnel through: build the
// outgoing framed HTTP/2 request, submit it through the middleware
// stack, and promote the response into a lazy, finite sequence of
// decoded messages terminated by gRPC trailers.
func (c *Client[In, Out]) Stream(ctx context.Context, req *Request[In]) (*Response[Out], error) {
	if err := sanitize(req.Header); err != nil {
		return nil, err
	}

	snap := c.config.load()

	opts := frame.EncodeOptions{
		Compression:   snap.sendCompression,
		MaxEncodeSize: snap.maxEncodingSize,
	}
	body := frame.EncodeBody[In](ctx, req.body, c.in.Encode, opts)

	httpReq, err := c.buildRequest(ctx, req.Header, snap, body)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.conn.RoundTrip(httpReq)
	if err != nil {
		return nil, status.FromError(err)
	}

	return c.promote(httpResp, snap)
}

func (c *Client[In, Out]) buildRequest(ctx context.Context, header http.Header, snap *configSnapshot, body io.ReadCloser) (*http.Request, error) {
	origin := snap.origin
	reqURL := origin
	reqURL.Path = joinPath(origin.Path, c.path)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.ProtoMajor = 2
	httpReq.ProtoMinor = 0

	for k, v := range header {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("content-type", status.GRPCContentType)
	httpReq.Header.Set("te", "trailers")

	if snap.sendCompression != "" {
		httpReq.Header.Set(status.HeaderGRPCEncoding, snap.sendCompression)
	}
	if accept := acceptEncodingHeader(snap.acceptCompression); accept != "" {
		httpReq.Header.Set(status.HeaderGRPCAcceptEncoding, accept)
	}

	return httpReq, nil
}

// promote inspects the response for a trailer-only status shortcut and
// otherwise wraps the body in a Streaming Decoder.
func (c *Client[In, Out]) promote(httpResp *http.Response, snap *configSnapshot) (*Response[Out], error) {
	if st := status.FromHeader(httpResp.Header); st != nil {
		httpResp.Body.Close()
		if !st.Ok() {
			return nil, st
		}
		return &Response[Out]{
			Header: httpResp.Header,
			body:   frame.NewEmpty[Out](c.out.Decode),
		}, nil
	}

	encoding := httpResp.Header.Get(status.HeaderGRPCEncoding)
	if encoding != "" {
		if _, ok := snap.acceptCompression[encoding]; !ok {
			httpResp.Body.Close()
			return nil, status.Unimplemented(fmt.Sprintf("unsupported grpc-encoding %q", encoding))
		}
	}

	decOpts := frame.DecodeOptions{Encoding: encoding, MaxDecodeSize: snap.maxDecodingSize}
	dec := frame.NewStreaming[Out](httpResp, c.out.Decode, decOpts)

	return &Response[Out]{
		Header:  httpResp.Header,
		Trailer: httpResp.Trailer,
		body:    dec,
	}, nil
}

// sanitize rejects caller-supplied headers the dispatcher owns.
func sanitize(h http.Header) error {
	for k := range h {
		if _, reserved := reservedHeaders[strings.ToLower(k)]; reserved {
			return status.Newf(status.CodeInvalidArgument, "header %q is reserved and cannot be set by the caller", k)
		}
	}
	return nil
}

// joinPath composes origin.path (stripped of a lone "/") with the
// method's path, matching invariant 1: the result always has a
// non-empty path.
func joinPath(originPath, methodPath string) string {
	trimmed := strings.TrimSuffix(originPath, "/")
	return trimmed + methodPath
}

func acceptEncodingHeader(accept map[string]struct{}) string {
	if len(accept) == 0 {
		return ""
	}
	names := make([]string, 0, len(accept))
	for name := range accept {
		names = append(names, name)
	}
	return strings.Join(names, ",")
}
