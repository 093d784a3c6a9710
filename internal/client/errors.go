package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go-jobboard-backend/pkg/apperror"
)

// Error kinds. Every error returned by this package is an *apperror.AppError
// wrapping exactly one of these, so callers can branch with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrTransport      = errors.New("transport failure")
	ErrTimeout        = errors.New("request timed out")
)

// IsRetryable reports whether err is worth retrying by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrTransport)
}

func invalid(message string) *apperror.AppError {
	return apperror.New(http.StatusBadRequest, message, ErrValidation)
}

func denied(message string) *apperror.AppError {
	return apperror.New(http.StatusForbidden, message, ErrAuthorization)
}

func kindFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrAuthentication
	case status == http.StatusForbidden:
		return ErrAuthorization
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status >= 400 && status < 500 && status != http.StatusTooManyRequests:
		return ErrValidation
	default:
		return ErrTransport
	}
}

// errorBody is the server's error envelope.
type errorBody struct {
	Message   string `json:"message"`
	Detail    string `json:"detail"`
	RequestID string `json:"request_id"`
}

// fromResponse turns a non-2xx response body into an AppError.
func fromResponse(status int, body []byte) *apperror.AppError {
	var env errorBody
	message := ""
	if json.Unmarshal(body, &env) == nil {
		message = env.Detail
		if message == "" {
			message = env.Message
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return apperror.New(status, message, kindFor(status))
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

// fromTransport classifies an error from http.Client.Do.
func fromTransport(err error) *apperror.AppError {
	if isTimeout(err) {
		return apperror.New(http.StatusGatewayTimeout, "The server took too long to respond.", fmt.Errorf("%w: %w", ErrTimeout, err))
	}
	msg := "Could not reach the server."
	if errors.Is(err, context.Canceled) {
		msg = "Request cancelled."
	}
	return apperror.New(http.StatusServiceUnavailable, msg, fmt.Errorf("%w: %w", ErrTransport, err))
}

func unauthenticated() *apperror.AppError {
	return apperror.New(http.StatusUnauthorized, "Not signed in.", ErrAuthentication)
}

func storeFailure(err error) *apperror.AppError {
	return apperror.New(http.StatusInternalServerError, "Could not save credentials.", fmt.Errorf("%w: %w", ErrTransport, err))
}
