package frame_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/i2y/grpcconn/frame"
	"github.com/i2y/grpcconn/status"
)

func identityEncode(msg []byte) ([]byte, error) { return msg, nil }
func identityDecode(data []byte) ([]byte, error) { return data, nil }

// TestUnaryOKScenario exercises end-to-end scenario 1 from the spec: a
// single-message request frame followed by a single-message response frame
// with an OK trailer.
func TestUnaryOKScenario(t *testing.T) {
	payload := []byte{0x0a, 0x05, 'w', 'o', 'r', 'l', 'd'}
	var buf bytes.Buffer
	if err := frame.WriteFrame(&buf, frame.Frame{Data: payload}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	want := []byte{0x00, 0x00, 0x00, 0x00, 0x07, 0x0a, 0x05, 'w', 'o', 'r', 'l', 'd'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("frame bytes = % x, want % x", buf.Bytes(), want)
	}

	got, err := frame.ReadFrame(&buf, 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got.Data, payload) || got.Compressed {
		t.Errorf("ReadFrame = %+v, want uncompressed %x", got, payload)
	}
}

func TestReadFrameEOF(t *testing.T) {
	_, err := frame.ReadFrame(bytes.NewReader(nil), 0)
	if !errors.Is(err, io.EOF) {
		t.Errorf("ReadFrame on empty reader = %v, want io.EOF", err)
	}
}

func TestReadFrameUnknownFlag(t *testing.T) {
	buf := []byte{0x02, 0, 0, 0, 0}
	_, err := frame.ReadFrame(bytes.NewReader(buf), 0)
	var st *status.Status
	if !errors.As(err, &st) || st.Code != status.CodeInternal {
		t.Errorf("expected Internal status for unknown flag, got %v", err)
	}
}

// TestOversizeDecode exercises scenario 5: a frame whose declared length
// exceeds the configured max triggers ResourceExhausted without reading
// the payload.
func TestOversizeDecode(t *testing.T) {
	var buf bytes.Buffer
	frame.WriteFrame(&buf, frame.Frame{Data: []byte("hello")})

	dec := frame.NewStreaming[[]byte](&http.Response{Body: io.NopCloser(&buf), Trailer: http.Header{}}, identityDecode, frame.DecodeOptions{MaxDecodeSize: 4})
	_, err := dec.Next(context.Background())

	var st *status.Status
	if !errors.As(err, &st) || st.Code != status.CodeResourceExhausted {
		t.Errorf("expected ResourceExhausted, got %v", err)
	}
}

func TestStreamingDecoderEndToEnd(t *testing.T) {
	var body bytes.Buffer
	payload := []byte{0x0a, 0x0b, 'h', 'e', 'l', 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd'}
	if err := frame.WriteFrame(&body, frame.Frame{Data: payload}); err != nil {
		t.Fatal(err)
	}

	trailer := http.Header{}
	trailer.Set(status.HeaderGRPCStatus, "0")

	resp := &http.Response{Body: io.NopCloser(&body), Trailer: trailer}
	dec := frame.NewStreaming[[]byte](resp, identityDecode, frame.DecodeOptions{})

	msg, err := dec.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !bytes.Equal(msg, payload) {
		t.Errorf("decoded = %x, want %x", msg, payload)
	}

	_, err = dec.Next(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Errorf("second Next = %v, want io.EOF", err)
	}
}

func TestErrorStatusInTrailers(t *testing.T) {
	trailer := http.Header{}
	trailer.Set(status.HeaderGRPCStatus, "5")
	trailer.Set(status.HeaderGRPCMessage, "not found")

	resp := &http.Response{Body: io.NopCloser(bytes.NewReader(nil)), Trailer: trailer}
	dec := frame.NewStreaming[[]byte](resp, identityDecode, frame.DecodeOptions{})

	_, err := dec.Next(context.Background())
	var st *status.Status
	if !errors.As(err, &st) {
		t.Fatalf("expected *status.Status, got %v", err)
	}
	if st.Code != status.CodeNotFound || st.Message != "not found" {
		t.Errorf("status = %+v, want NotFound/not found", st)
	}
}

func TestEmptyStreamNeverReadsBody(t *testing.T) {
	dec := frame.NewEmpty[[]byte](identityDecode)
	_, err := dec.Next(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Errorf("NewEmpty stream Next() = %v, want io.EOF", err)
	}
}

func TestEncodeBodyRoundTrip(t *testing.T) {
	msgs := [][]byte{[]byte("first"), []byte("second")}
	src := sliceSrc(msgs)

	body := frame.EncodeBody[[]byte](context.Background(), src, identityEncode, frame.EncodeOptions{})
	defer body.Close()

	var got [][]byte
	for {
		f, err := frame.ReadFrame(body, 0)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		got = append(got, f.Data)
	}

	if len(got) != len(msgs) {
		t.Fatalf("got %d frames, want %d", len(got), len(msgs))
	}
	for i := range msgs {
		if !bytes.Equal(got[i], msgs[i]) {
			t.Errorf("frame %d = %q, want %q", i, got[i], msgs[i])
		}
	}
}

func TestEncodeBodyOversize(t *testing.T) {
	src := sliceSrc([][]byte{bytes.Repeat([]byte("x"), 10)})
	body := frame.EncodeBody[[]byte](context.Background(), src, identityEncode, frame.EncodeOptions{MaxEncodeSize: 4})
	defer body.Close()

	_, err := frame.ReadFrame(body, 0)
	var st *status.Status
	if !errors.As(err, &st) || st.Code != status.CodeResourceExhausted {
		t.Errorf("expected ResourceExhausted, got %v", err)
	}
}

type testSource struct {
	msgs []([]byte)
	i    int
}

func (s *testSource) Next(ctx context.Context) ([]byte, error) {
	if s.i >= len(s.msgs) {
		return nil, io.EOF
	}
	m := s.msgs[s.i]
	s.i++
	return m, nil
}

func sliceSrc(msgs [][]byte) *testSource {
	return &testSource{msgs: msgs}
}
