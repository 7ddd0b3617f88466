package status

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Well-known gRPC header/trailer names.
const (
	HeaderGRPCStatus         = "grpc-status"
	HeaderGRPCMessage        = "grpc-message"
	HeaderGRPCStatusDetails  = "grpc-status-details-bin"
	HeaderGRPCEncoding       = "grpc-encoding"
	HeaderGRPCAcceptEncoding = "grpc-accept-encoding"
	HeaderGRPCTimeout        = "grpc-timeout"
	HeaderContentType        = "content-type"
	HeaderUserAgent          = "user-agent"
	HeaderTE                 = "te"

	GRPCContentType = "application/grpc"
)

// FromHeader parses a gRPC status out of an HTTP header/trailer set. It
// returns nil if no grpc-status is present (the caller must keep reading:
// status hasn't arrived yet, e.g. it's in trailers instead of headers).
func FromHeader(h http.Header) *Status {
	raw := h.Get(HeaderGRPCStatus)
	if raw == "" {
		return nil
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return New(CodeUnknown, "malformed grpc-status: "+raw)
	}
	msg := decodePercent(h.Get(HeaderGRPCMessage))
	return &Status{Code: Code(code), Message: msg, Header: h}
}

// SetHeader writes the status onto an HTTP header/trailer set using the
// standard grpc-status/grpc-message keys.
func (s *Status) SetHeader(h http.Header) {
	code := CodeOK
	msg := ""
	if s != nil {
		code = s.Code
		msg = s.Message
	}
	h.Set(HeaderGRPCStatus, strconv.Itoa(int(code)))
	if msg != "" {
		h.Set(HeaderGRPCMessage, encodePercent(msg))
	}
}

// decodePercent decodes the percent-encoded UTF-8 grpc-message value per
// the gRPC HTTP/2 spec (a restricted percent-encoding, not the full URL
// encoding: only bytes outside 0x20-0x7E, plus '%', are escaped).
func decodePercent(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// encodePercent encodes a message using the gRPC restricted percent-encoding.
func encodePercent(s string) string {
	needsEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E || s[i] == '%' {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7E || c == '%' {
			b.WriteByte('%')
			if c < 0x10 {
				b.WriteByte('0')
			}
			b.WriteString(strings.ToUpper(strconv.FormatUint(uint64(c), 16)))
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// FromError classifies an arbitrary transport-layer error into a Status at
// the dispatcher boundary, per the error taxonomy: an existing *Status is
// returned as is, deadline/cancellation are recognized from the context
// package, any net.Error becomes Unavailable, and everything else
// collapses to Unknown.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}
	var s *Status
	if errors.As(err, &s) {
		return s
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return DeadlineExceeded(err.Error())
	case errors.Is(err, context.Canceled):
		return Canceled(err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Unavailable(err.Error())
	}
	return Unknown(err.Error())
}
