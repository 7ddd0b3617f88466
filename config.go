// Package grpcconn is a client-side gRPC transport core: it turns a
// typed unary or streaming call into a conformant HTTP/2 request with
// length-prefixed framed messages, dispatches it through a composable
// middleware stack, and returns a decoded reply or a streaming reader of
// replies.
package grpcconn

import (
	"net/url"
	"sync/atomic"
)

// configSnapshot is the immutable value a Config swaps atomically on
// every mutating call — tonic's Arc<GrpcConfig> clone-on-mutate pattern,
// translated to Go's atomic.Pointer so the hot read path (one call
// start) never takes a lock.
type configSnapshot struct {
	origin             url.URL
	sendCompression    string
	acceptCompression  map[string]struct{}
	maxEncodingSize    int
	maxDecodingSize    int
}

// Config holds per-client tunables: origin, compression negotiation, and
// message size limits. Safe for concurrent use; mutating methods replace
// the whole snapshot rather than editing it in place, so a call already
// in flight keeps observing the snapshot it started with.
type Config struct {
	snap atomic.Pointer[configSnapshot]
}

// NewConfig builds a Config for the given origin with no compression and
// no size limits.
func NewConfig(origin url.URL) *Config {
	c := &Config{}
	c.snap.Store(&configSnapshot{origin: origin, acceptCompression: map[string]struct{}{}})
	return c
}

func (c *Config) load() *configSnapshot { return c.snap.Load() }

// Origin returns the current origin URI.
func (c *Config) Origin() url.URL { return c.load().origin }

// SendCompressed enables sending messages compressed with the named
// algorithm ("gzip", "deflate", "zstd").
func (c *Config) SendCompressed(name string) {
	old := c.load()
	next := *old
	next.sendCompression = name
	c.snap.Store(&next)
}

// SendCompression returns the configured send-compression algorithm, or
// "" if none.
func (c *Config) SendCompression() string { return c.load().sendCompression }

// AcceptCompressed adds name to the set of algorithms advertised via
// grpc-accept-encoding. Calling it twice with the same name is a no-op
// after the first (the testable idempotence property).
func (c *Config) AcceptCompressed(name string) {
	old := c.load()
	if _, ok := old.acceptCompression[name]; ok {
		return
	}
	next := *old
	next.acceptCompression = make(map[string]struct{}, len(old.acceptCompression)+1)
	for k := range old.acceptCompression {
		next.acceptCompression[k] = struct{}{}
	}
	next.acceptCompression[name] = struct{}{}
	c.snap.Store(&next)
}

// AcceptCompression returns the set of accepted algorithms.
func (c *Config) AcceptCompression() map[string]struct{} { return c.load().acceptCompression }

// MaxEncodingMessageSize sets the maximum post-compression frame size
// Encode Body will produce, 0 for unlimited.
func (c *Config) MaxEncodingMessageSize(n int) {
	old := c.load()
	next := *old
	next.maxEncodingSize = n
	c.snap.Store(&next)
}

func (c *Config) maxEncodingSize() int { return c.load().maxEncodingSize }

// MaxDecodingMessageSize sets the maximum declared frame length the
// Streaming Decoder will accept, 0 for unlimited.
func (c *Config) MaxDecodingMessageSize(n int) {
	old := c.load()
	next := *old
	next.maxDecodingSize = n
	c.snap.Store(&next)
}

func (c *Config) maxDecodingSize() int { return c.load().maxDecodingSize }
