// Package apperr holds the error taxonomy shared by every engine component.
//
// Callers branch with errors.Is against the sentinels below; the concrete
// wrapping message is meant for logs, while Message returns the text a
// cashier or warehouse operator should see.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed input. No remote call was issued.
	ErrValidation = errors.New("validation error")

	// ErrRemoteCall marks a network failure or a non-2xx answer from the remote API.
	ErrRemoteCall = errors.New("remote call failure")

	// ErrInvalidTransition marks a request lifecycle action that is illegal in the current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrMissingDependency marks a lifecycle action whose prerequisite record does not exist yet.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrCheckoutInProgress is returned while a checkout is awaiting the remote ledger.
	ErrCheckoutInProgress = errors.New("checkout in progress")
)

const genericNetworkMessage = "Gagal terhubung ke server, periksa koneksi jaringan"

// RemoteError describes a failed call to the remote collaborator.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

// NewNetworkError wraps a transport level failure.
func NewNetworkError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Message: genericNetworkMessage, Err: err}
}

// NewStatusError builds an error for a non-2xx answer. serverMessage may be empty.
func NewStatusError(op string, statusCode int, serverMessage string) *RemoteError {
	msg := serverMessage
	if msg == "" {
		msg = fmt.Sprintf("Error %d: %s", statusCode, http.StatusText(statusCode))
	}
	return &RemoteError{Op: op, StatusCode: statusCode, Message: msg}
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, ErrRemoteCall, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, ErrRemoteCall)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", e.Op, ErrRemoteCall, e.StatusCode, e.Message)
}

// Is reports ErrRemoteCall so that errors.Is(err, ErrRemoteCall) holds for every RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteCall
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Validationf formats a validation error that wraps ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Message returns the human-readable text for err. Remote failures surface the
// collaborator's own message verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return err.Error()
}

// HTTPStatus maps the taxonomy onto the status codes used by the console adapter.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrMissingDependency):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRemoteCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
