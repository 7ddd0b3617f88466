package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestConcurrencyLimitBoundsInFlight(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	next := Func(func(req *http.Request) (*http.Response, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			cur := maxSeen.Load()
			if n <= cur || maxSeen.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return httptest.NewRecorder().Result(), nil
	})

	limited := NewConcurrencyLimit(next, 2)

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			req := httptest.NewRequest(http.MethodPost, "http://example.com/", nil)
			limited.RoundTrip(req)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	if maxSeen.Load() > 2 {
		t.Errorf("max concurrent calls = %d, want <= 2", maxSeen.Load())
	}
}

func TestConcurrencyLimitRespectsContextCancel(t *testing.T) {
	block := make(chan struct{})
	next := Func(func(req *http.Request) (*http.Response, error) {
		<-block
		return httptest.NewRecorder().Result(), nil
	})
	limited := NewConcurrencyLimit(next, 1)

	req1 := httptest.NewRequest(http.MethodPost, "http://example.com/", nil)
	go limited.RoundTrip(req1)
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req2 := httptest.NewRequest(http.MethodPost, "http://example.com/", nil).WithContext(ctx)
	cancel()

	_, err := limited.RoundTrip(req2)
	if err == nil {
		t.Error("expected error from canceled acquire")
	}
	close(block)
}
