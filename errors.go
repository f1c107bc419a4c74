package devicebridge

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a capability failure. Adapters translate every
// backend-specific failure into one of these kinds before returning; the
// dispatcher only forwards or short-circuits, it never invents new kinds.
type ErrorKind string

const (
	// KindPermissionDenied means the permission machine resolved to
	// Denied or Restricted for the capability.
	KindPermissionDenied ErrorKind = "permission_denied"

	// KindUnavailable means the capability is not supported by the
	// current environment or hardware.
	KindUnavailable ErrorKind = "unavailable"

	// KindTimeout means the native bridge or browser call exceeded its bound.
	KindTimeout ErrorKind = "timeout"

	// KindBackendFailure means the adapter was rejected unexpectedly,
	// e.g. media stream acquisition failed.
	KindBackendFailure ErrorKind = "backend_failure"

	// KindInvalidRequest means caller-supplied configuration was out of
	// the allowed range.
	KindInvalidRequest ErrorKind = "invalid_request"
)

// Sentinel errors for errors.Is() checks against a CapabilityError's kind.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnavailable      = errors.New("capability unavailable")
	ErrTimeout          = errors.New("capability call timed out")
	ErrBackendFailure   = errors.New("backend failure")
	ErrInvalidRequest   = errors.New("invalid request")
)

// CapabilityError is the single failure shape surfaced by the bridge.
type CapabilityError struct {
	Kind       ErrorKind    `json:"kind"`
	Capability CapabilityID `json:"capability"`
	Message    string       `json:"message"`

	cause error
}

// NewError creates a CapabilityError with a formatted message.
func NewError(kind ErrorKind, capability CapabilityID, format string, args ...any) *CapabilityError {
	return &CapabilityError{
		Kind:       kind,
		Capability: capability,
		Message:    fmt.Sprintf(format, args...),
	}
}

// WrapError creates a CapabilityError that records err as its cause.
// The cause is reachable through errors.Unwrap but never crosses the wire.
func WrapError(kind ErrorKind, capability CapabilityID, err error) *CapabilityError {
	return &CapabilityError{
		Kind:       kind,
		Capability: capability,
		Message:    err.Error(),
		cause:      err,
	}
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Capability, e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *CapabilityError) Unwrap() error {
	return e.cause
}

// Is maps the error kind onto its sentinel so callers can use
// errors.Is(err, devicebridge.ErrTimeout) without unpacking the struct.
func (e *CapabilityError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrBackendFailure:
		return e.Kind == KindBackendFailure
	case ErrInvalidRequest:
		return e.Kind == KindInvalidRequest
	}
	return false
}

// AsCapabilityError extracts a CapabilityError from err's chain.
func AsCapabilityError(err error) (*CapabilityError, bool) {
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// EnsureKind returns err unchanged when it already carries a capability
// kind, and otherwise wraps it as a BackendFailure for the capability.
// Adapters use it as the final translation step on their error paths.
func EnsureKind(capability CapabilityID, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsCapabilityError(err); ok {
		return err
	}
	return WrapError(KindBackendFailure, capability, err)
}
