// Package status provides the gRPC domain error: a code, a message, and
// metadata, adapted from the Connect/gRPC error codes used elsewhere in
// this module's ancestry.
package status

import (
	"fmt"
	"net/http"
)

// Code represents a gRPC status code, numbered per the gRPC over HTTP/2
// spec so it round-trips through the wire unchanged.
type Code int

// Standard gRPC status codes.
const (
	CodeOK                 Code = 0
	CodeCanceled           Code = 1
	CodeUnknown            Code = 2
	CodeInvalidArgument    Code = 3
	CodeDeadlineExceeded   Code = 4
	CodeNotFound           Code = 5
	CodeAlreadyExists      Code = 6
	CodePermissionDenied   Code = 7
	CodeResourceExhausted  Code = 8
	CodeFailedPrecondition Code = 9
	CodeAborted            Code = 10
	CodeOutOfRange         Code = 11
	CodeUnimplemented      Code = 12
	CodeInternal           Code = 13
	CodeUnavailable        Code = 14
	CodeDataLoss           Code = 15
	CodeUnauthenticated    Code = 16
)

var codeNames = map[Code]string{
	CodeOK:                 "OK",
	CodeCanceled:           "CANCELLED",
	CodeUnknown:            "UNKNOWN",
	CodeInvalidArgument:    "INVALID_ARGUMENT",
	CodeDeadlineExceeded:   "DEADLINE_EXCEEDED",
	CodeNotFound:           "NOT_FOUND",
	CodeAlreadyExists:      "ALREADY_EXISTS",
	CodePermissionDenied:   "PERMISSION_DENIED",
	CodeResourceExhausted:  "RESOURCE_EXHAUSTED",
	CodeFailedPrecondition: "FAILED_PRECONDITION",
	CodeAborted:            "ABORTED",
	CodeOutOfRange:         "OUT_OF_RANGE",
	CodeUnimplemented:      "UNIMPLEMENTED",
	CodeInternal:           "INTERNAL",
	CodeUnavailable:        "UNAVAILABLE",
	CodeDataLoss:           "DATA_LOSS",
	CodeUnauthenticated:    "UNAUTHENTICATED",
}

// String returns the gRPC wire name for the code (e.g. "NOT_FOUND").
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// httpStatusCodes maps gRPC codes to a plausible HTTP status for non-gRPC
// surfaces; nothing in this module calls HTTPStatusCode itself.
var httpStatusCodes = map[Code]int{
	CodeOK:                 http.StatusOK,
	CodeCanceled:           http.StatusRequestTimeout,
	CodeUnknown:            http.StatusInternalServerError,
	CodeInvalidArgument:    http.StatusBadRequest,
	CodeDeadlineExceeded:   http.StatusRequestTimeout,
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodePermissionDenied:   http.StatusForbidden,
	CodeResourceExhausted:  http.StatusTooManyRequests,
	CodeFailedPrecondition: http.StatusPreconditionFailed,
	CodeAborted:            http.StatusConflict,
	CodeOutOfRange:         http.StatusBadRequest,
	CodeUnimplemented:      http.StatusNotImplemented,
	CodeInternal:           http.StatusInternalServerError,
	CodeUnavailable:        http.StatusServiceUnavailable,
	CodeDataLoss:           http.StatusInternalServerError,
	CodeUnauthenticated:    http.StatusUnauthorized,
}

// HTTPStatusCode returns a representative HTTP status for the code.
func (c Code) HTTPStatusCode() int {
	if s, ok := httpStatusCodes[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Status is the gRPC domain error: a code, a UTF-8 message, and metadata
// headers carried alongside it (e.g. grpc-status-details-bin, or any
// caller-supplied trailer metadata).
type Status struct {
	Code    Code
	Message string
	Header  http.Header
}

// New creates a Status with the given code and message.
func New(code Code, message string) *Status {
	return &Status{Code: code, Message: message}
}

// Newf creates a Status with a formatted message.
func Newf(code Code, format string, args ...any) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (s *Status) Error() string {
	if s == nil {
		return CodeOK.String()
	}
	return fmt.Sprintf("rpc error: code = %s desc = %s", s.Code, s.Message)
}

// Ok reports whether the status represents success.
func (s *Status) Ok() bool {
	return s == nil || s.Code == CodeOK
}

// WithHeader attaches metadata headers to the status and returns it.
func (s *Status) WithHeader(h http.Header) *Status {
	s.Header = h
	return s
}

// Convenience constructors mirroring the taxonomy in the error handling
// design: one per gRPC code this module actually produces.
func Canceled(msg string) *Status         { return New(CodeCanceled, msg) }
func Unknown(msg string) *Status          { return New(CodeUnknown, msg) }
func DeadlineExceeded(msg string) *Status { return New(CodeDeadlineExceeded, msg) }
func ResourceExhausted(msg string) *Status {
	return New(CodeResourceExhausted, msg)
}
func Internal(msg string) *Status      { return New(CodeInternal, msg) }
func Unimplemented(msg string) *Status { return New(CodeUnimplemented, msg) }
func Unavailable(msg string) *Status   { return New(CodeUnavailable, msg) }

// Internalf is the formatted variant of Internal.
func Internalf(format string, args ...any) *Status {
	return Newf(CodeInternal, format, args...)
}
