package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/i2y/grpcconn/endpoint"
)

// Connector dials a fresh HTTP/2 session to an origin. Reconnect calls it
// again whenever the current session needs replacing.
type Connector interface {
	Connect(ctx context.Context, origin string) (Transport, error)
}

// DialFunc adapts a plain function to a Connector.
type DialFunc func(ctx context.Context, origin string) (Transport, error)

func (f DialFunc) Connect(ctx context.Context, origin string) (Transport, error) {
	return f(ctx, origin)
}

// SendRequest wraps an *http2.Transport behind the Transport interface.
// It is the terminal stage of the middleware stack — the actual wire
// send.
type SendRequest struct {
	transport *http2.Transport
	origin    string
}

// NewHTTP2Connector builds a Connector over one http2.Transport tuned per
// ep's HTTP2 settings: TLS HTTP/2 when tlsConfig is set, plaintext h2c
// when it is nil. Connect opens no connection itself; the http2.Transport
// dials on first use and pools its sessions, and every Connect returns a
// SendRequest over that same transport.
func NewHTTP2Connector(ep *endpoint.Endpoint, tlsConfig *tls.Config) Connector {
	settings := ep.HTTP2Settings()
	t := &http2.Transport{
		TLSClientConfig:   tlsConfig,
		ReadIdleTimeout:   settings.KeepAliveInterval,
		PingTimeout:       settings.KeepAliveTimeout,
		MaxHeaderListSize: settings.MaxHeaderListSize,
		AllowHTTP:         tlsConfig == nil,
	}
	if tlsConfig == nil {
		t.DialTLSContext = func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		}
	}

	return DialFunc(func(ctx context.Context, origin string) (Transport, error) {
		return &SendRequest{transport: t, origin: origin}, nil
	})
}

func (s *SendRequest) RoundTrip(req *http.Request) (*http.Response, error) {
	return s.transport.RoundTrip(req)
}

// dialTimeout bounds how long a Reconnect attempt waits for a new session
// before giving up and surfacing Unavailable.
const dialTimeout = 10 * time.Second

func dialWithTimeout(ctx context.Context, connector Connector, origin string) (Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	t, err := connector.Connect(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", origin, err)
	}
	return t, nil
}
