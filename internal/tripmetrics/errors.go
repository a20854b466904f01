package tripmetrics

import (
	"context"
	"errors"
	"fmt"
)

// ErrDecode marks a response body that could not be decoded as JSON.
var ErrDecode = errors.New("malformed response body")

// StatusError reports a non-2xx response from the metrics API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Code, e.URL)
}

// DecodeError reports a response body that is not valid JSON for the
// expected shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.URL, ErrDecode)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// TransportError wraps a network failure while the request was in flight.
// The message is the underlying transport error text.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	var (
		statusErr    *StatusError
		decodeErr    *DecodeError
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &statusErr):
		return "status"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "error"
	}
}
