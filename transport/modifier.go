package transport

import (
	"fmt"
	"net/http"
)

// Modifier rewrites an outgoing request before it reaches the send
// endpoint — tonic's ModifierFn collapsed from an async
// FnOnce(Request) -> impl Future<Output = Request> into a plain
// synchronous function, since nothing here needs to await anything to
// decide how to rewrite a request.
type Modifier func(req *http.Request) (*http.Request, error)

// Chain composes modifiers into the order they were given: the first
// modifier sees the original request, the last produces the request that
// is actually sent.
func Chain(mods ...Modifier) Modifier {
	return func(req *http.Request) (*http.Request, error) {
		var err error
		for _, m := range mods {
			req, err = m(req)
			if err != nil {
				return nil, err
			}
		}
		return req, nil
	}
}

// AddOrigin rewrites the request's scheme and host to the endpoint's
// origin, mirroring tonic's AddOrigin modifier: callers build requests
// against a logical path and let the connection pin them to wherever it
// is actually dialed.
func AddOrigin(scheme, host string) Modifier {
	return func(req *http.Request) (*http.Request, error) {
		req.URL.Scheme = scheme
		req.URL.Host = host
		req.Host = host
		return req, nil
	}
}

// UserAgent sets the outgoing user-agent header. If the request already
// carries one, agent is put in front of it, separated by a space.
func UserAgent(agent string) Modifier {
	return func(req *http.Request) (*http.Request, error) {
		if agent == "" {
			return req, nil
		}
		if existing := req.Header.Get("user-agent"); existing != "" {
			req.Header.Set("user-agent", fmt.Sprintf("%s %s", agent, existing))
		} else {
			req.Header.Set("user-agent", agent)
		}
		return req, nil
	}
}

// AsModifierTransport wraps a Modifier as a Transport stage: apply the
// rewrite, then hand off to next.
func AsModifierTransport(mod Modifier, next Transport) Transport {
	return Func(func(req *http.Request) (*http.Response, error) {
		req, err := mod(req)
		if err != nil {
			return nil, err
		}
		return next.RoundTrip(req)
	})
}
