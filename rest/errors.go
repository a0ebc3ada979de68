package rest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedPath is wrapped by ConfigurationError for JSON paths outside
// the supported subset ($, .name, ['name'], [index]).
var ErrUnsupportedPath = errors.New("unsupported json path")

// ConfigurationError reports a malformed table or connection definition.
// It aborts the registration of that table only.
type ConfigurationError struct {
	Table string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration of table %q: %v", e.Table, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func errorf(format string, args ...any) error {
	return &ConfigurationError{Err: fmt.Errorf(format, args...)}
}

// TransportError reports a failed request attempt against one address:
// render failure, connect failure, timeout, non-2xx status or unreadable body.
type TransportError struct {
	Address string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Address, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AllAttemptsFailedError is returned when no address produced a response.
// Attempts holds each attempt's error in the order addresses were tried.
type AllAttemptsFailedError struct {
	Attempts []error
}

func (e *AllAttemptsFailedError) Error() string {
	msgs := make([]string, len(e.Attempts))
	for i, err := range e.Attempts {
		msgs[i] = err.Error()
	}
	return "all request attempts failed: " + strings.Join(msgs, "; ")
}

func (e *AllAttemptsFailedError) Unwrap() []error { return e.Attempts }

// ExtractionError reports a response whose shape does not match the table:
// invalid JSON or a root path that does not resolve to an array.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract rows at %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// CoercionError reports a value that cannot be converted to its field's type.
type CoercionError struct {
	Field string
	Type  Type
	Raw   string
	Err   error
}

func (e *CoercionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cannot convert %q to %s: %v", e.Raw, e.Type, e.Err)
	}
	return fmt.Sprintf("field %s: cannot convert %q to %s: %v", e.Field, e.Raw, e.Type, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }
