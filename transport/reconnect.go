package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/i2y/grpcconn/status"
)

type connState int

const (
	stateIdle connState = iota
	stateConnecting
	stateReady
)

// Reconnect owns a single live send endpoint, dialed lazily (or eagerly)
// through a Connector, and transparently redials it after any call through
// it fails; errors are not classified first. It never retries the
// failed request itself — only the next call benefits from the fresh
// session (spec: "No retry of the same request across reconnects").
//
// tower models this as a poll_ready state machine so it composes with an
// async readiness protocol; here RoundTrip already blocks the calling
// goroutine, so the three states (Idle/Connecting/Ready) collapse into a
// single mutex-guarded field with connect-on-demand.
type Reconnect struct {
	connector Connector
	origin    string

	mu    sync.Mutex
	state connState
	conn  Transport
}

// NewReconnect builds a Reconnect wrapper for origin. If lazy, the first
// connection attempt happens on the first call; otherwise it happens
// immediately.
func NewReconnect(ctx context.Context, connector Connector, origin string, lazy bool) (*Reconnect, error) {
	r := &Reconnect{connector: connector, origin: origin, state: stateIdle}
	if !lazy {
		if _, err := r.ensureConnected(ctx); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Reconnect) ensureConnected(ctx context.Context) (Transport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateReady {
		return r.conn, nil
	}

	r.state = stateConnecting
	conn, err := dialWithTimeout(ctx, r.connector, r.origin)
	if err != nil {
		r.state = stateIdle
		return nil, status.Newf(status.CodeUnavailable, "%v", err)
	}
	r.conn = conn
	r.state = stateReady
	return conn, nil
}

// reset transitions back to Idle so the next call redials. Called after
// every RoundTrip error.
func (r *Reconnect) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = stateIdle
	r.conn = nil
}

func (r *Reconnect) RoundTrip(req *http.Request) (*http.Response, error) {
	conn, err := r.ensureConnected(req.Context())
	if err != nil {
		return nil, err
	}

	resp, err := conn.RoundTrip(req)
	if err != nil {
		r.reset()
		return nil, status.Newf(status.CodeUnavailable, "%v", err)
	}
	return resp, nil
}
