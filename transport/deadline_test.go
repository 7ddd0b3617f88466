package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseGRPCTimeout(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"10S", 10 * time.Second},
		{"250m", 250 * time.Millisecond},
		{"1H", time.Hour},
		{"5M", 5 * time.Minute},
		{"100u", 100 * time.Microsecond},
		{"7n", 7 * time.Nanosecond},
	}
	for _, c := range cases {
		got, err := ParseGRPCTimeout(c.in)
		if err != nil {
			t.Errorf("ParseGRPCTimeout(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseGRPCTimeout(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseGRPCTimeoutInvalid(t *testing.T) {
	cases := []string{"", "10", "123456789S", "10X"}
	for _, in := range cases {
		if _, err := ParseGRPCTimeout(in); err == nil {
			t.Errorf("ParseGRPCTimeout(%q) = nil error, want error", in)
		}
	}
}

func TestFormatGRPCTimeoutRoundTrip(t *testing.T) {
	d := 42 * time.Second
	s := FormatGRPCTimeout(d)
	got, err := ParseGRPCTimeout(s)
	if err != nil {
		t.Fatalf("ParseGRPCTimeout(%q): %v", s, err)
	}
	if got != d {
		t.Errorf("round trip %v -> %q -> %v", d, s, got)
	}
}

func TestDeadlineUsesClientHeader(t *testing.T) {
	slow := Func(func(req *http.Request) (*http.Response, error) {
		select {
		case <-time.After(50 * time.Millisecond):
			return httptest.NewRecorder().Result(), nil
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	})

	d := NewDeadline(slow, 0)
	req := httptest.NewRequest(http.MethodPost, "http://example.com/svc/Method", nil)
	req.Header.Set(grpcTimeoutHeader, "5m")

	_, err := d.RoundTrip(req)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestDeadlinePassesThroughWithoutTimeout(t *testing.T) {
	fast := Func(func(req *http.Request) (*http.Response, error) {
		return httptest.NewRecorder().Result(), nil
	})
	d := NewDeadline(fast, 0)
	req := httptest.NewRequest(http.MethodPost, "http://example.com/svc/Method", nil)

	resp, err := d.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if resp == nil {
		t.Fatal("expected a response")
	}
}

func TestDeadlineIntersectsServerCeiling(t *testing.T) {
	d := &Deadline{serverCeiling: 10 * time.Second}
	h := http.Header{}
	h.Set(grpcTimeoutHeader, "1S")

	got, ok := d.effectiveTimeout(h)
	if !ok || got != time.Second {
		t.Errorf("effectiveTimeout = %v, %v; want 1s, true", got, ok)
	}
}
