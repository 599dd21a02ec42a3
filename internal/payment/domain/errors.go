package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidReference = errors.New("invalid_reference")
	ErrMissingReference = errors.New("missing_reference")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidSignature = errors.New("invalid_signature")
)

// GatewayErrorKind separates gateway-reported failures from failures to reach the gateway.
type GatewayErrorKind string

const (
	// GatewayRejected means the gateway answered with a non-200 status.
	GatewayRejected GatewayErrorKind = "rejected"
	// GatewayTransport means the call never produced a response (timeout, DNS, refused).
	GatewayTransport GatewayErrorKind = "transport"
	// GatewayMalformed means a 200 response whose body could not be decoded.
	GatewayMalformed GatewayErrorKind = "malformed"
)

const (
	MessageInitializeFailed = "Payment initialization failed"
	MessageVerifyFailed     = "Failed to verify payment"
	MessageGatewayTimeout   = "Payment gateway unreachable"
)

// GatewayError is returned by every Gateway operation that does not succeed.
// Status is the HTTP status the relay should answer with; UpstreamStatus is
// what the gateway actually returned (0 for transport failures).
type GatewayError struct {
	Kind           GatewayErrorKind
	Operation      string
	Status         int
	UpstreamStatus int
	Message        string
	Err            error
}

func (e *GatewayError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway %s %s (status %d): %s: %v", e.Operation, e.Kind, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s %s (status %d): %s", e.Operation, e.Kind, e.Status, e.Message)
}

func (e *GatewayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransport reports whether err is a GatewayError caused by the network.
func IsTransport(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Kind == GatewayTransport
}

// NewRejectedError builds a GatewayError for a non-200 gateway answer.
func NewRejectedError(operation string, status, upstream int, message string) *GatewayError {
	if status <= 0 {
		status = http.StatusBadGateway
	}
	return &GatewayError{
		Kind:           GatewayRejected,
		Operation:      operation,
		Status:         status,
		UpstreamStatus: upstream,
		Message:        message,
	}
}

// NewTransportError builds a GatewayError for a call that produced no response.
func NewTransportError(operation string, status int, message string, err error) *GatewayError {
	return &GatewayError{
		Kind:      GatewayTransport,
		Operation: operation,
		Status:    status,
		Message:   message,
		Err:       err,
	}
}

// NewMalformedError builds a GatewayError for an undecodable 200 response.
func NewMalformedError(operation string, status int, message string, err error) *GatewayError {
	return &GatewayError{
		Kind:           GatewayMalformed,
		Operation:      operation,
		Status:         status,
		UpstreamStatus: http.StatusOK,
		Message:        message,
		Err:            err,
	}
}
