package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const grpcTimeoutHeader = "grpc-timeout"

// ParseGRPCTimeout parses a grpc-timeout header value ("250m", "10S", ...)
// per the gRPC-over-HTTP2 wire spec: at most 8 digits followed by one of
// H/M/S/m/u/n. On any parse failure it returns the original header value
// wrapped in the error, matching tonic's try_parse_grpc_timeout contract
// of reporting what it failed to parse rather than just "invalid".
func ParseGRPCTimeout(val string) (time.Duration, error) {
	if val == "" {
		return 0, fmt.Errorf("empty grpc-timeout header")
	}

	digits, unit := val[:len(val)-1], val[len(val)-1]

	// gRPC spec caps TimeoutValue at 8 digits; this also rules out
	// overflow when parsed into a uint64.
	if len(digits) > 8 {
		return 0, fmt.Errorf("grpc-timeout value too long: %q", val)
	}

	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("grpc-timeout %q: %w", val, err)
	}

	switch unit {
	case 'H':
		return time.Duration(n) * time.Hour, nil
	case 'M':
		return time.Duration(n) * time.Minute, nil
	case 'S':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Millisecond, nil
	case 'u':
		return time.Duration(n) * time.Microsecond, nil
	case 'n':
		return time.Duration(n) * time.Nanosecond, nil
	default:
		return 0, fmt.Errorf("grpc-timeout %q: unknown unit %q", val, unit)
	}
}

// FormatGRPCTimeout renders d as a grpc-timeout header value using the
// finest unit (trying nanoseconds first, up to hours) whose value still
// fits the 8-digit limit.
func FormatGRPCTimeout(d time.Duration) string {
	if d <= 0 {
		return "0n"
	}
	units := []struct {
		suffix string
		unit   time.Duration
	}{
		{"n", time.Nanosecond},
		{"u", time.Microsecond},
		{"m", time.Millisecond},
		{"S", time.Second},
		{"M", time.Minute},
		{"H", time.Hour},
	}
	for _, u := range units {
		v := d / u.unit
		if v <= 99999999 {
			return strconv.FormatInt(int64(v), 10) + u.suffix
		}
	}
	return strconv.FormatInt(int64(d/time.Hour), 10) + "H"
}

// Deadline wraps a Transport, intersecting the grpc-timeout header already
// present on the outgoing request with an optional server-configured
// ceiling, and racing the inner call against whichever is shorter. Unlike
// tonic's GrpcTimeout, which threads an out-of-band oneshot channel to
// smuggle the parsed duration from an async "prepare the request" step
// into the future that waits on it (the AsyncService split has no
// counterpart here), this is a single blocking call: the request is fully
// formed already, so the timeout is just read straight off its header.
type Deadline struct {
	next           Transport
	serverCeiling  time.Duration
}

// NewDeadline builds a Deadline middleware. serverCeiling of 0 means no
// server-side ceiling; the client's grpc-timeout header (if any) still
// applies.
func NewDeadline(next Transport, serverCeiling time.Duration) *Deadline {
	return &Deadline{next: next, serverCeiling: serverCeiling}
}

func (d *Deadline) RoundTrip(req *http.Request) (*http.Response, error) {
	timeout, haveTimeout := d.effectiveTimeout(req.Header)
	if !haveTimeout {
		return d.next.RoundTrip(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()
	req = req.WithContext(ctx)

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := d.next.RoundTrip(req)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("grpc-timeout %s exceeded: %w", timeout, ctx.Err())
	}
}

// effectiveTimeout intersects the client's grpc-timeout header with the
// server ceiling, keeping the shorter of the two when both are set. A
// malformed header is logged and treated as absent, as tonic does
// (trace-and-ignore rather than fail the call).
func (d *Deadline) effectiveTimeout(h http.Header) (time.Duration, bool) {
	var clientTimeout time.Duration
	haveClient := false
	if raw := h.Get(grpcTimeoutHeader); raw != "" {
		if dur, err := ParseGRPCTimeout(raw); err == nil {
			clientTimeout, haveClient = dur, true
		} else {
			slog.Warn("ignoring malformed grpc-timeout header", "value", raw, "error", err)
		}
	}

	haveServer := d.serverCeiling > 0

	switch {
	case !haveClient && !haveServer:
		return 0, false
	case haveClient && !haveServer:
		return clientTimeout, true
	case !haveClient && haveServer:
		return d.serverCeiling, true
	default:
		if clientTimeout < d.serverCeiling {
			return clientTimeout, true
		}
		return d.serverCeiling, true
	}
}
