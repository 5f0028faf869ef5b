package errors

import "net/http"

// APIError is the error type every service returns to the transport layer.
// Cause is kept for logging and never serialised.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Cause   error       `json:"-"`
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of e carrying err.
func (e *APIError) WithCause(err error) *APIError {
	cp := *e
	cp.Cause = err
	return &cp
}

// Body is the payload written under the "error" key of a response.
func (e *APIError) Body() map[string]interface{} {
	body := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Details != nil {
		body["details"] = e.Details
	}
	return body
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

// Unavailable reports a dependency that is shutting down or gone.
func Unavailable(code, message string) *APIError {
	return New(http.StatusServiceUnavailable, code, message)
}
