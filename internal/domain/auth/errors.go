package auth

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies failures of the identity flow.
type ErrorKind string

const (
	// ErrorFatalConfig is a malformed app id or similar: stop and show the manual path.
	ErrorFatalConfig ErrorKind = "fatal_config"
	// ErrorRetriable is a network/timeout failure; bounded retry, then surfaced.
	ErrorRetriable ErrorKind = "retriable"
	// ErrorSDKUnavailable means the host lacks the SDK; the flow silently falls back to the manual login.
	ErrorSDKUnavailable ErrorKind = "sdk_unavailable"
	// ErrorExchangeRejected means the backend declined the token.
	ErrorExchangeRejected ErrorKind = "exchange_rejected"
	// ErrorUnknown is the catch-all recorded when a guarded SDK call fell back.
	ErrorUnknown ErrorKind = "unknown"
)

// Silent reports whether the kind is never shown to the user.
func (k ErrorKind) Silent() bool { return k == ErrorSDKUnavailable }

// FlowError is the tagged failure returned in an orchestration outcome.
type FlowError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	// Display is the user-facing text rendered next to the retry action.
	Display string `json:"display"`
	// Status is the HTTP status of a rejected exchange, if any.
	Status int `json:"status,omitempty"`
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewFlowError builds a FlowError with the standard display text for kind.
func NewFlowError(kind ErrorKind, status int, message string) *FlowError {
	return &FlowError{
		Kind:    kind,
		Message: message,
		Display: DisplayMessage(kind, status),
		Status:  status,
	}
}

// DisplayMessage returns the user-facing message for a failure.
func DisplayMessage(kind ErrorKind, status int) string {
	switch kind {
	case ErrorFatalConfig:
		return "LINE login is not configured correctly. Please sign in manually."
	case ErrorRetriable:
		return "We could not reach LINE. Check your connection and try again."
	case ErrorExchangeRejected:
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return "Your LINE login has expired. Please try again."
		case status == http.StatusTooManyRequests:
			return "Too many login attempts. Please wait a moment and try again."
		case status >= http.StatusInternalServerError:
			return "The server could not complete your login. Please try again."
		default:
			return "Login was rejected. Please try again."
		}
	case ErrorSDKUnavailable:
		return ""
	default:
		return "Something went wrong while signing you in. Please try again."
	}
}
