// Package transport implements the connection-level middleware stack: a
// composable chain of Transport values wrapping the actual HTTP/2 send,
// each adding one concern (origin rewriting, user-agent, deadlines,
// concurrency/rate limiting, reconnect) without knowing about the others.
package transport

import "net/http"

// Transport is the unit the middleware stack is built from: anything
// shaped like http.RoundTripper. Because Go's RoundTrip already blocks
// the calling goroutine until a response (or error) is available, there
// is no separate readiness/poll protocol to implement here — unlike
// tower's Service, which splits "are you ready" from "do the call" so an
// executor can multiplex many futures on one thread. A goroutine already
// is that thread.
type Transport interface {
	RoundTrip(req *http.Request) (*http.Response, error)
}

// Func adapts a plain function to a Transport.
type Func func(req *http.Request) (*http.Response, error)

func (f Func) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// Load reports a connection's current load metric. The transport core
// never tracks in-flight call counts (no load-aware balancer sits on top
// of it), so it always reports zero — present only so a caller slotting
// this into a pool/balancer abstraction has something to call.
func Load(Transport) int { return 0 }
