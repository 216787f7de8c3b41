package connector

import (
	"errors"
	"fmt"
	"time"
)

// Error types carried by ClientError.Type.
const (
	ErrorTypeTimeout    = "Timeout"
	ErrorTypeCanceled   = "Canceled"
	ErrorTypeHTTPStatus = "HTTPStatus"
	ErrorTypeTransport  = "Transport"
	ErrorTypeValidation = "Validation"
)

// Numeric codes for client-side aborts. They sit outside the HTTP status
// range so callers can tell them apart from server answers.
const (
	CodeTimeout  = 1408
	CodeCanceled = 1409
)

// Sentinels for errors.Is. Matching is by error type only.
var (
	ErrTimeout    = &ClientError{Type: ErrorTypeTimeout, Code: CodeTimeout, Message: "request timed out"}
	ErrCanceled   = &ClientError{Type: ErrorTypeCanceled, Code: CodeCanceled, Message: "request canceled"}
	ErrHTTPStatus = &ClientError{Type: ErrorTypeHTTPStatus, Message: "unsuccessful status"}
)

// ClientError is returned for every failed request.
type ClientError struct {
	Type    string
	Code    int
	Message string
	Cause   error

	RequestID  string
	Method     string
	URL        string
	StatusCode int
	StatusText string
	Timeout    time.Duration
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	if e.Code > 0 {
		info += fmt.Sprintf("Code: %d\n", e.Code)
	}
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status: %d %s\n", e.StatusCode, e.StatusText)
	}
	if e.Timeout > 0 {
		info += fmt.Sprintf("Timeout: %v\n", e.Timeout)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// IsTimeout reports whether err came from the request timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled reports whether err came from an explicit cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// ErrorCode returns the numeric code of err: 1408 or 1409 for client aborts,
// the HTTP status for unsuccessful responses, 0 otherwise.
func ErrorCode(err error) int {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return 0
	}
	if ce.Code != 0 {
		return ce.Code
	}
	return ce.StatusCode
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

func newTimeoutError(timeout time.Duration, cause error) *ClientError {
	return &ClientError{
		Type:    ErrorTypeTimeout,
		Code:    CodeTimeout,
		Message: fmt.Sprintf("Timeout error. [%dms]", timeout.Milliseconds()),
		Cause:   cause,
		Timeout: timeout,
	}
}

func newCanceledError(cause error) *ClientError {
	return &ClientError{
		Type:    ErrorTypeCanceled,
		Code:    CodeCanceled,
		Message: "Request canceled.",
		Cause:   cause,
	}
}

func newStatusError(status int, statusText string) *ClientError {
	return &ClientError{
		Type:       ErrorTypeHTTPStatus,
		Code:       status,
		Message:    fmt.Sprintf("%d %s", status, statusText),
		StatusCode: status,
		StatusText: statusText,
	}
}

func newTransportError(cause error) *ClientError {
	return &ClientError{
		Type:    ErrorTypeTransport,
		Message: "request failed",
		Cause:   cause,
	}
}
