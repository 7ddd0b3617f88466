// Package endpoint describes one logical gRPC target: the origin URI and
// the session/middleware tuning the connection factory and middleware
// stack builder need to dial and shape it.
package endpoint

import (
	"net/url"
	"time"
)

// RateLimit shapes call admission to N calls per duration.
type RateLimit struct {
	N   int
	Per time.Duration
}

// HTTP2 bundles the HTTP/2 session tuning parameters named in the spec
// data model.
type HTTP2 struct {
	InitialStreamWindowSize uint32
	InitialConnWindowSize   uint32
	KeepAliveInterval       time.Duration
	KeepAliveTimeout        time.Duration
	KeepAliveWhileIdle      bool
	AdaptiveWindow          bool
	MaxHeaderListSize       uint32
}

// Executor spawns the connection driver task. The default runs it on an
// ordinary goroutine; callers with their own worker pool can supply one.
type Executor func(task func())

func defaultExecutor(task func()) { go task() }

// Endpoint is an immutable handle describing one logical target. Use
// Option values with New to construct one, or Clone+With to derive a
// variant — Endpoint is never mutated in place once built.
type Endpoint struct {
	origin         url.URL
	overrideOrigin *url.URL
	userAgent      string
	timeout        time.Duration
	concurrency    int
	rateLimit      *RateLimit
	http2          HTTP2
	executor       Executor
}

// Option configures an Endpoint at construction time.
type Option func(*Endpoint)

// New builds an Endpoint for the given origin URI.
func New(origin url.URL, opts ...Option) *Endpoint {
	e := &Endpoint{
		origin:   origin,
		executor: defaultExecutor,
		http2: HTTP2{
			InitialStreamWindowSize: 1 << 20,
			InitialConnWindowSize:   1 << 20,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clone returns a copy of e with opts re-applied on top — the only way to
// change a field, since Endpoint is immutable after construction.
func (e *Endpoint) Clone(opts ...Option) *Endpoint {
	clone := *e
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

func (e *Endpoint) Origin() url.URL { return e.origin }

// RequestOrigin returns the origin used for the HTTP :authority/:scheme
// pseudo-headers: the override if one was set, else the origin itself.
func (e *Endpoint) RequestOrigin() url.URL {
	if e.overrideOrigin != nil {
		return *e.overrideOrigin
	}
	return e.origin
}

func (e *Endpoint) UserAgent() string       { return e.userAgent }
func (e *Endpoint) Timeout() time.Duration  { return e.timeout }
func (e *Endpoint) Concurrency() int        { return e.concurrency }
func (e *Endpoint) RateLimit() *RateLimit   { return e.rateLimit }
func (e *Endpoint) HTTP2Settings() HTTP2    { return e.http2 }
func (e *Endpoint) Exec() Executor          { return e.executor }

// WithOrigin overrides the URI used for the HTTP :authority/:scheme
// pseudo-headers without changing the connect-to origin.
func WithOrigin(origin url.URL) Option {
	return func(e *Endpoint) { e.overrideOrigin = &origin }
}

// WithUserAgent sets the user-agent string injected by the UserAgent
// modifier.
func WithUserAgent(ua string) Option {
	return func(e *Endpoint) { e.userAgent = ua }
}

// WithTimeout sets the server-configured deadline ceiling intersected with
// the client's grpc-timeout header by the deadline middleware.
func WithTimeout(d time.Duration) Option {
	return func(e *Endpoint) { e.timeout = d }
}

// WithConcurrencyLimit bounds simultaneous in-flight calls.
func WithConcurrencyLimit(n int) Option {
	return func(e *Endpoint) { e.concurrency = n }
}

// WithRateLimit shapes call admission to n calls per the given duration.
func WithRateLimit(n int, per time.Duration) Option {
	return func(e *Endpoint) { e.rateLimit = &RateLimit{N: n, Per: per} }
}

// WithHTTP2 overrides the HTTP/2 tuning parameters.
func WithHTTP2(h HTTP2) Option {
	return func(e *Endpoint) { e.http2 = h }
}

// WithExecutor overrides how the connection driver task is spawned.
func WithExecutor(exec Executor) Option {
	return func(e *Endpoint) { e.executor = exec }
}
