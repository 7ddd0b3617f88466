package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/i2y/grpcconn/endpoint"
)

// Connection is the live, reconnecting service a dispatcher sends
// requests through: the composed middleware stack wrapping a single
// logical endpoint. Not cloneable — the reconnect state underneath is
// owned by exactly one Connection.
type Connection struct {
	ep       *endpoint.Endpoint
	top      Transport
	reconn   *Reconnect
}

// Option configures NewConnection beyond what the Endpoint itself
// carries: the one-shot custom modifier, grounded in tonic's
// Connection::connect(connector, endpoint, modifier_fn) entry point
// (distinct from Connection::new, which always installs the no-op
// default modifier).
type Option func(*stackConfig)

type stackConfig struct {
	lazy     bool
	modifier Modifier
}

// Lazy defers the first connection attempt to the first call.
func Lazy() Option { return func(c *stackConfig) { c.lazy = true } }

// WithModifier installs a custom per-request modifier between
// UserAgent and Deadline in the stack.
func WithModifier(m Modifier) Option {
	return func(c *stackConfig) { c.modifier = m }
}

// NewConnection builds the full middleware stack around connector for
// ep, in the fixed order: concurrency limit -> rate limit -> AddOrigin ->
// UserAgent -> custom modifier -> deadline -> reconnect -> send.
func NewConnection(ctx context.Context, connector Connector, ep *endpoint.Endpoint, opts ...Option) (*Connection, error) {
	cfg := stackConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	origin := ep.Origin()
	reqOrigin := ep.RequestOrigin()
	reconn, err := NewReconnect(ctx, connector, origin.Host, cfg.lazy)
	if err != nil {
		return nil, fmt.Errorf("build connection: %w", err)
	}

	var top Transport = reconn
	top = NewDeadline(top, ep.Timeout())

	// Requests are addressed to the connect-to host; only :scheme and
	// :authority (req.Host) come from the override origin.
	mods := []Modifier{
		AddOrigin(reqOrigin.Scheme, origin.Host),
		func(req *http.Request) (*http.Request, error) {
			req.Host = reqOrigin.Host
			return req, nil
		},
		UserAgent(ep.UserAgent()),
	}
	if cfg.modifier != nil {
		mods = append(mods, cfg.modifier)
	}
	// Custom modifier runs after AddOrigin/UserAgent but before the
	// deadline is read off the request, matching the order
	// AddOrigin -> UserAgent -> custom modifier -> deadline.
	top = AsModifierTransport(Chain(mods...), top)

	if rl := ep.RateLimit(); rl != nil {
		top = NewRateLimit(top, rl.N, rl.Per)
	}
	if n := ep.Concurrency(); n > 0 {
		top = NewConcurrencyLimit(top, n)
	}

	return &Connection{ep: ep, top: top, reconn: reconn}, nil
}

func (c *Connection) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.top.RoundTrip(req)
}

// Load always reports zero — see transport.Load.
func (c *Connection) Load() int { return 0 }
