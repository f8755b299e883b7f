package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Result is implemented by wrappers that carry a status code next to the payload.
type Result interface {
	Status() int
	Payload() any
}

// HTTPResult wraps a successful payload with an explicit status and headers.
type HTTPResult struct {
	StatusCode int
	Headers    http.Header
	Response   any
}

// NewResult wraps payload with the given status.
func NewResult(status int, payload any) *HTTPResult {
	return &HTTPResult{StatusCode: status, Headers: make(http.Header), Response: payload}
}

// Status returns the status code, defaulting to 200.
func (r *HTTPResult) Status() int {
	if r == nil || r.StatusCode == 0 {
		return http.StatusOK
	}
	return r.StatusCode
}

// Payload returns the wrapped payload.
func (r *HTTPResult) Payload() any {
	if r == nil {
		return nil
	}
	return r.Response
}

// HTTPError is a failed result. Services may return it as a value or as an
// error; both are treated the same.
type HTTPError struct {
	StatusCode int
	Message    string
	Headers    http.Header
	Response   any

	// Err is the underlying cause, if any.
	Err error
}

// NewError creates an HTTPError whose payload is an ErrorResponse carrying
// the status text as ErrorCode.
func NewError(status int, message string) *HTTPError {
	code := http.StatusText(status)
	if code == "" {
		code = fmt.Sprintf("Status%d", status)
	}
	return &HTTPError{
		StatusCode: status,
		Message:    message,
		Response: &ErrorResponse{ResponseStatusHolder{ResponseStatus: &ResponseStatus{
			ErrorCode: removeSpaces(code),
			Message:   message,
		}}},
	}
}

// Errorf is NewError with a formatted message.
func Errorf(status int, format string, args ...any) *HTTPError {
	return NewError(status, fmt.Sprintf(format, args...))
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error: <nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("http error %d", e.Status())
	}
	return fmt.Sprintf("http error %d: %s", e.Status(), e.Message)
}

// Unwrap returns the underlying cause.
func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Status returns the status code, defaulting to 500.
func (e *HTTPError) Status() int {
	if e == nil || e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// Payload returns the error payload.
func (e *HTTPError) Payload() any {
	if e == nil {
		return nil
	}
	return e.Response
}

// StatusCoder lets an error choose the HTTP status it is reported with.
type StatusCoder interface {
	StatusCode() int
}

// ToHTTPError converts err into an HTTPError. Existing HTTPErrors in the
// chain are returned as they are; other errors, including a nil *HTTPError
// stored in a non-nil error, become a 500 (or the status of a StatusCoder)
// with an ErrorResponse payload.
func ToHTTPError(err error, withStack bool) *HTTPError {
	if err == nil {
		return nil
	}
	var he *HTTPError
	if errors.As(err, &he) && he != nil {
		return he
	}

	status := http.StatusInternalServerError
	var sc StatusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	return &HTTPError{
		StatusCode: status,
		Message:    err.Error(),
		Response:   &ErrorResponse{ResponseStatusHolder{ResponseStatus: NewResponseStatus(err, withStack)}},
		Err:        err,
	}
}

// Unwrap splits a service result into status, payload and error flag.
// Plain values are reported as 200 with themselves as payload. A nil
// *HTTPError is not an error.
func Unwrap(v any) (status int, payload any, isError bool) {
	switch r := v.(type) {
	case *HTTPError:
		if r == nil {
			return http.StatusOK, nil, false
		}
		return r.Status(), r.Payload(), true
	case Result:
		return r.Status(), r.Payload(), false
	default:
		return http.StatusOK, v, false
	}
}

func removeSpaces(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
