package deepseek

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse means the upstream answered 200 but carried no usable
// choice content.
var ErrEmptyResponse = errors.New("empty completion response")

// AuthError means the upstream rejected our credential (401/403).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Message)
}

// TransportError covers everything between us and a usable upstream answer:
// network failures, timeouts, and 5xx responses.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
