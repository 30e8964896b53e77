package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrCanceled is returned when the caller gave up on a call (context canceled
// or its deadline passed). It is never a data error.
var ErrCanceled = errors.New("remote call canceled")

func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ConfigurationError means the gateway cannot be used at all: base URL or
// credential missing.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gateway misconfigured: missing %s", e.Missing)
}

// InvalidResponseError means the remote answered with a body that is not
// JSON, or whose JSON does not have the expected shape.
type InvalidResponseError struct {
	Endpoint string
	Raw      string
	Err      error
}

func (e *InvalidResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid response from %s: %s: %s", e.Endpoint, e.Err, e.Raw)
	}
	return fmt.Sprintf("invalid JSON from %s: %s", e.Endpoint, e.Raw)
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}

// RemoteCallError is a non-2xx answer. Message is the server provided
// "error" field, or "HTTP <code>" when there is none.
type RemoteCallError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Endpoint, e.Message)
}
