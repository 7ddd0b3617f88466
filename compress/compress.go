// Package compress provides the gRPC message compressors referenced by
// grpc-encoding / grpc-accept-encoding, registered by name like the
// teacher's rpc.Compressor registry.
package compress

import (
	"bytes"
	"sync"
)

// Well-known encoding names.
const (
	Identity = ""
	Gzip     = "gzip"
	Deflate  = "deflate"
	Zstd     = "zstd"
)

// Compressor compresses and decompresses whole messages.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var registry = struct {
	sync.RWMutex
	m map[string]Compressor
}{m: make(map[string]Compressor)}

// Register adds a compressor to the global registry.
func Register(c Compressor) {
	registry.Lock()
	defer registry.Unlock()
	registry.m[c.Name()] = c
}

// Get returns a registered compressor by name.
func Get(name string) (Compressor, bool) {
	registry.RLock()
	defer registry.RUnlock()
	c, ok := registry.m[name]
	return c, ok
}

// bufferPool is shared across compressors to cut allocations on the hot
// encode/decode path, matching the teacher's rpc.bufferPool.
var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	bufferPool.Put(buf)
}

func init() {
	Register(&gzipCompressor{})
	Register(&deflateCompressor{})
	Register(&zstdCompressor{})
}

// DefaultThreshold is the de-minimis size under which Encode Body (frame
// package) skips compression even when send-compression is configured.
const DefaultThreshold = 1024
