package transport

import "sync/atomic"

// LayerOnce wraps a Modifier so it can be applied to a stack exactly
// once; a second application panics. tonic's LayerFnOnce exists because
// ModifierFn is built from an FnOnce closure — applying tower's Layer
// trait to it twice would silently double-consume (or, pre-guard,
// outright miscompile) the captured closure, so the layer wraps it in an
// Option and panics on a second take. Nothing here forces a second
// single-use constraint on Go the way Rust's ownership model does, but a
// custom Modifier built from a take-once resource (a one-shot token, a
// credential usable only once) has the same hazard, so the guard is kept
// to preserve that testable property: building two transports from one
// LayerOnce is a programming error, not silently-wrong behavior.
type LayerOnce struct {
	used atomic.Bool
	mod  Modifier
}

// NewLayerOnce wraps mod for single use.
func NewLayerOnce(mod Modifier) *LayerOnce {
	return &LayerOnce{mod: mod}
}

// Apply returns a Transport stage built from the wrapped modifier. It
// panics if called more than once.
func (l *LayerOnce) Apply(next Transport) Transport {
	if !l.used.CompareAndSwap(false, true) {
		panic("transport: LayerOnce applied more than once")
	}
	return AsModifierTransport(l.mod, next)
}
