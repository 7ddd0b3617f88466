package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/i2y/grpcconn/status"
)

// TestReconnectAfterFailure exercises end-to-end scenario 6 from the
// spec: the first call succeeds, the second call fails with Unavailable
// because the session breaks, and the third call redials and succeeds
// against a fresh session; the failed second request is not retried.
func TestReconnectAfterFailure(t *testing.T) {
	var dialCount, callCount atomic.Int32
	failNextCall := false

	connector := DialFunc(func(ctx context.Context, origin string) (Transport, error) {
		dialCount.Add(1)
		return Func(func(req *http.Request) (*http.Response, error) {
			callCount.Add(1)
			if failNextCall {
				failNextCall = false
				return nil, errors.New("session broken")
			}
			return httptest.NewRecorder().Result(), nil
		}), nil
	})

	r, err := NewReconnect(context.Background(), connector, "example.com:443", false)
	if err != nil {
		t.Fatalf("NewReconnect: %v", err)
	}
	if dialCount.Load() != 1 {
		t.Fatalf("eager NewReconnect should dial once, dialed %d times", dialCount.Load())
	}

	req := httptest.NewRequest(http.MethodPost, "http://example.com/svc/Method", nil)
	if _, err := r.RoundTrip(req); err != nil {
		t.Fatalf("first call: %v", err)
	}

	failNextCall = true
	if _, err := r.RoundTrip(req); err == nil {
		t.Fatal("expected the broken-session call to fail")
	} else {
		var st *status.Status
		if !errors.As(err, &st) || st.Code != status.CodeUnavailable {
			t.Errorf("err = %v, want Unavailable status", err)
		}
	}

	if _, err := r.RoundTrip(req); err != nil {
		t.Fatalf("reconnected call: %v", err)
	}
	if dialCount.Load() != 2 {
		t.Errorf("dial count = %d, want 2 (initial + reconnect)", dialCount.Load())
	}
	if callCount.Load() != 3 {
		t.Errorf("call count = %d, want 3 (no retry of the failed request)", callCount.Load())
	}
}

func TestReconnectLazyDoesNotDialUntilFirstCall(t *testing.T) {
	var dialCount atomic.Int32
	connector := DialFunc(func(ctx context.Context, origin string) (Transport, error) {
		dialCount.Add(1)
		return Func(func(req *http.Request) (*http.Response, error) {
			return httptest.NewRecorder().Result(), nil
		}), nil
	})

	r, err := NewReconnect(context.Background(), connector, "example.com:443", true)
	if err != nil {
		t.Fatalf("NewReconnect: %v", err)
	}
	if dialCount.Load() != 0 {
		t.Fatalf("lazy NewReconnect dialed %d times before first call, want 0", dialCount.Load())
	}

	req := httptest.NewRequest(http.MethodPost, "http://example.com/svc/Method", nil)
	if _, err := r.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if dialCount.Load() != 1 {
		t.Errorf("dial count = %d, want 1", dialCount.Load())
	}
}
