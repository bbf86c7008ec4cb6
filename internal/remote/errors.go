package remote

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a remote sync failure. Transport faults never leave
// this package as anything other than an *Error carrying one of these kinds.
type ErrorKind string

const (
	KindNetworkUnavailable ErrorKind = "network_unavailable"
	KindAuthRejected       ErrorKind = "auth_rejected"
	KindMalformedResponse  ErrorKind = "malformed_response"
	KindNotFound           ErrorKind = "not_found"
)

// Error is the typed failure returned by the remote client.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err, or "" if err is not a remote Error.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// IsNetwork reports whether err is a remote network failure (including the
// simulated one).
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetworkUnavailable
}

// IsNotFound reports whether err is the remote not-found precondition.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
