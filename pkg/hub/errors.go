package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// Hub errors, matched with errors.Is against *APIError.
var (
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnavailable      = errors.New("device unavailable")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// Gateway status codes (gRPC codes) the console distinguishes.
const (
	codeInvalidArgument  = 3
	codeDeadlineExceeded = 4
	codeNotFound         = 5
	codePermissionDenied = 7
	codeUnavailable      = 14
	codeUnauthenticated  = 16
)

// APIError is an error answer of the gateway.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hub: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("hub: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Is matches the package sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrDeadlineExceeded:
		return e.Code == codeDeadlineExceeded || e.Status == http.StatusGatewayTimeout ||
			strings.Contains(e.Message, "DeadlineExceeded") ||
			strings.Contains(strings.ToLower(e.Message), "deadline exceeded")
	case ErrNotFound:
		return e.Code == codeNotFound || e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Code == codeUnauthenticated || e.Status == http.StatusUnauthorized
	case ErrPermissionDenied:
		return e.Code == codePermissionDenied || e.Status == http.StatusForbidden
	case ErrUnavailable:
		return e.Code == codeUnavailable || e.Status == http.StatusServiceUnavailable
	case ErrInvalidArgument:
		return e.Code == codeInvalidArgument || e.Status == http.StatusBadRequest
	}
	return false
}

// CommandError is the error of a device command. It keeps the correlation
// ID so a scheduled command can be tracked and cancelled.
type CommandError struct {
	CorrelationID string
	Err           error
}

func (e *CommandError) Error() string { return e.Err.Error() }

func (e *CommandError) Unwrap() error { return e.Err }

// CorrelationID returns the correlation ID carried by err, or "".
func CorrelationID(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.CorrelationID
	}
	return ""
}

// errorBody is the gateway error JSON.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
}

func (b *errorBody) apiError(status int) *APIError {
	return &APIError{Status: status, Code: b.Code, Message: b.Message}
}

// Classify maps a call result to the outcome shown to the user. A command
// that ran out of time, on the hub or on the client, stays pending on the
// hub and is reported as scheduled, as is a command for an offline device.
func Classify(err error) model.Outcome {
	switch {
	case err == nil:
		return model.OutcomeOK
	case errors.Is(err, ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrUnavailable):
		return model.OutcomeScheduled
	default:
		return model.OutcomeFailed
	}
}
