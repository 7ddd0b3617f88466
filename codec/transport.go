package codec

import (
	"fmt"

	protobuf "google.golang.org/protobuf/proto"
)

// Pair is the codec collaborator the transport spec treats as an opaque
// external dependency: an encoder()/decoder() pair for exactly one message
// type M, supplied by the caller and plugged into the call dispatcher and
// frame package without either needing to know anything about protobuf,
// JSON, or any other wire format.
type Pair[M any] struct {
	// Name identifies the codec for diagnostics (e.g. "proto").
	Name string
	// Encode writes one message into a byte buffer.
	Encode func(m M) ([]byte, error)
	// Decode decodes one message from a byte buffer.
	Decode func(data []byte) (M, error)
}

// Proto builds a Pair for a concrete google.golang.org/protobuf message
// type using plain proto.Marshal/Unmarshal — the default codec a
// generated-free caller reaches for. newMessage must return a fresh zero
// value of M on every call (Decode calls it once per message).
func Proto[M protobuf.Message](newMessage func() M) Pair[M] {
	return Pair[M]{
		Name: "proto",
		Encode: func(m M) ([]byte, error) {
			return protobuf.Marshal(m)
		},
		Decode: func(data []byte) (M, error) {
			m := newMessage()
			if err := protobuf.Unmarshal(data, m); err != nil {
				var zero M
				return zero, fmt.Errorf("unmarshal %T: %w", m, err)
			}
			return m, nil
		},
	}
}

// Dynamic adapts the hyperpb-backed, schema-driven *Codec (built from a
// protoreflect.MessageDescriptor with no generated Go type involved) into a
// Pair[protobuf.Message] so it can be plugged into the same dispatcher as
// Proto — this is how a reflection/dynamic-schema caller reaches the
// transport core without generated stubs.
func Dynamic(c *Codec) Pair[protobuf.Message] {
	return Pair[protobuf.Message]{
		Name: "proto",
		Encode: func(m protobuf.Message) ([]byte, error) {
			return c.Marshal(m)
		},
		Decode: func(data []byte) (protobuf.Message, error) {
			return c.Unmarshal(data)
		},
	}
}
