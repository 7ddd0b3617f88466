package grpcconn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/i2y/grpcconn/codec"
	"github.com/i2y/grpcconn/frame"
	"github.com/i2y/grpcconn/status"
	"github.com/i2y/grpcconn/transport"
)

func identityPair() codec.Pair[[]byte] {
	return codec.Pair[[]byte]{
		Name:   "identity",
		Encode: func(m []byte) ([]byte, error) { return m, nil },
		Decode: func(data []byte) ([]byte, error) { return data, nil },
	}
}

func newTestClient(t *testing.T, rt transport.Func) *Client[[]byte, []byte] {
	t.Helper()
	cfg := NewConfig(url.URL{Scheme: "https", Host: "example.com"})
	pair := identityPair()
	return New[[]byte, []byte]("/g.Greeter/SayHello", rt, cfg, pair, pair)
}

// TestUnaryOK exercises end-to-end scenario 1: a single-message request
// encodes to the exact literal frame bytes, and the decoded single
// response message round-trips back out.
func TestUnaryOK(t *testing.T) {
	var sentBody []byte
	client := newTestClient(t, transport.Func(func(req *http.Request) (*http.Response, error) {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		sentBody = b

		var respBody bytes.Buffer
		payload := []byte{0x0a, 0x0b, 'h', 'e', 'l', 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd'}
		frame.WriteFrame(&respBody, frame.Frame{Data: payload})

		trailer := http.Header{}
		trailer.Set(status.HeaderGRPCStatus, "0")
		return &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": {"application/grpc"}},
			Body:       io.NopCloser(&respBody),
			Trailer:    trailer,
		}, nil
	}))

	req := NewRequest([]byte{0x0a, 0x05, 'w', 'o', 'r', 'l', 'd'})
	resp, err := client.Unary(context.Background(), req)
	if err != nil {
		t.Fatalf("Unary: %v", err)
	}

	wantSent := []byte{0x00, 0x00, 0x00, 0x00, 0x07, 0x0a, 0x05, 'w', 'o', 'r', 'l', 'd'}
	if !bytes.Equal(sentBody, wantSent) {
		t.Errorf("sent body = % x, want % x", sentBody, wantSent)
	}

	msg, err := resp.Message(context.Background())
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	want := []byte{0x0a, 0x0b, 'h', 'e', 'l', 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd'}
	if !bytes.Equal(msg, want) {
		t.Errorf("decoded = %q, want %q", msg, want)
	}
}

// TestUnaryMissingResponse exercises scenario 2.
func TestUnaryMissingResponse(t *testing.T) {
	client := newTestClient(t, transport.Func(func(req *http.Request) (*http.Response, error) {
		trailer := http.Header{}
		trailer.Set(status.HeaderGRPCStatus, "0")
		return &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": {"application/grpc"}},
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Trailer:    trailer,
		}, nil
	}))

	_, err := client.Unary(context.Background(), NewRequest([]byte("req")))
	var st *status.Status
	if !errors.As(err, &st) || st.Code != status.CodeInternal || st.Message != "Missing response message." {
		t.Errorf("err = %v, want Internal(\"Missing response message.\")", err)
	}
}

// TestTrailerOnlyError exercises scenario 3: headers alone carry a
// non-OK status, and the body is never read.
func TestTrailerOnlyError(t *testing.T) {
	bodyTouched := false
	client := newTestClient(t, transport.Func(func(req *http.Request) (*http.Response, error) {
		h := http.Header{"Content-Type": {"application/grpc"}}
		h.Set(status.HeaderGRPCStatus, "5")
		h.Set(status.HeaderGRPCMessage, "not found")
		return &http.Response{
			StatusCode: 200,
			Header:     h,
			Body:       io.NopCloser(readerFunc(func([]byte) (int, error) { bodyTouched = true; return 0, io.EOF })),
		}, nil
	}))

	_, err := client.Unary(context.Background(), NewRequest([]byte("req")))
	var st *status.Status
	if !errors.As(err, &st) || st.Code != status.CodeNotFound || st.Message != "not found" {
		t.Errorf("err = %v, want NotFound(\"not found\")", err)
	}
	if bodyTouched {
		t.Error("body was read on a trailer-only response")
	}
}

// TestOversizeDecodeFails exercises scenario 5.
func TestOversizeDecodeFails(t *testing.T) {
	cfg := NewConfig(url.URL{Scheme: "https", Host: "example.com"})
	cfg.MaxDecodingMessageSize(4)
	pair := identityPair()
	client := New[[]byte, []byte]("/g.Greeter/SayHello", transport.Func(func(req *http.Request) (*http.Response, error) {
		var respBody bytes.Buffer
		frame.WriteFrame(&respBody, frame.Frame{Data: []byte("hello")})
		trailer := http.Header{}
		trailer.Set(status.HeaderGRPCStatus, "0")
		return &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": {"application/grpc"}},
			Body:       io.NopCloser(&respBody),
			Trailer:    trailer,
		}, nil
	}), cfg, pair, pair)

	_, err := client.Unary(context.Background(), NewRequest([]byte("req")))
	var st *status.Status
	if !errors.As(err, &st) || st.Code != status.CodeResourceExhausted {
		t.Errorf("err = %v, want ResourceExhausted", err)
	}
}

func TestReservedHeaderRejected(t *testing.T) {
	client := newTestClient(t, transport.Func(func(req *http.Request) (*http.Response, error) {
		t.Fatal("transport should not be reached")
		return nil, nil
	}))

	req := NewRequest([]byte("req"))
	req.Header.Set("content-type", "text/plain")

	_, err := client.Unary(context.Background(), req)
	var st *status.Status
	if !errors.As(err, &st) || st.Code != status.CodeInvalidArgument {
		t.Errorf("err = %v, want InvalidArgument", err)
	}
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
