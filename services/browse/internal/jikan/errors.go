package jikan

import (
	"errors"
	"fmt"
)

// Kind is the stable failure category of an upstream call.
type Kind int

const (
	// KindUnknown covers network failures and malformed response bodies.
	KindUnknown Kind = iota
	// KindRateLimited is upstream throttling (HTTP 429).
	KindRateLimited
	// KindTransport is any other non-2xx HTTP status.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

const rateLimitedMessage = "Rate limited. Please wait a moment and try again."

// ErrInvalidArgument is returned, wrapped, before any I/O when an operation
// receives an argument it cannot build a request from.
var ErrInvalidArgument = errors.New("invalid argument")

// Error is a classified upstream failure.
type Error struct {
	Kind       Kind
	Message    string
	HTTPStatus int // 0 when no response was received
	Err        error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the classification of err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindUnknown, false
}

func rateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: rateLimitedMessage, HTTPStatus: 429}
}

func transport(status int, text string) *Error {
	return &Error{Kind: KindTransport, Message: fmt.Sprintf("API Error: %d %s", status, text), HTTPStatus: status}
}

func unknown(err error) *Error {
	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
