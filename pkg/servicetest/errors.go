package servicetest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nuxleus/directhost/pkg/service"
)

// Errors returned by the executor and client. Each reports its kind as the
// ErrorCode of the ResponseStatus built for it.
var (
	// ErrUnsupportedRoute is returned when no route matches the method and path.
	ErrUnsupportedRoute error = &kindError{code: "UnsupportedRoute", msg: "unsupported route"}

	// ErrNotImplemented is returned by operations the direct client does not support.
	ErrNotImplemented error = &kindError{code: "NotImplemented", msg: "not implemented"}

	// ErrUnexpectedResponse is returned when a result cannot be converted to
	// the requested response type.
	ErrUnexpectedResponse error = &kindError{code: "UnexpectedResponse", msg: "unexpected response type"}
)

type kindError struct {
	code string
	msg  string
}

func (e *kindError) Error() string     { return e.msg }
func (e *kindError) ErrorCode() string { return e.code }

// failureStatus is the transport status reported for an error that did not
// come from the service.
func failureStatus(err error) int {
	if errors.Is(err, ErrUnsupportedRoute) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ServiceError is a failure reported by the service at the transport level.
type ServiceError struct {
	StatusCode int
	ErrorCode  string
	Message    string

	// Response is the error payload the service produced.
	Response any

	// Err is the underlying cause, if any.
	Err error
}

func newServiceError(he *service.HTTPError) *ServiceError {
	e := &ServiceError{
		StatusCode: he.Status(),
		Message:    he.Message,
		Response:   he.Payload(),
		Err:        he,
	}
	if st := service.StatusOf(e.Response); st != nil {
		e.ErrorCode = st.ErrorCode
		if e.Message == "" {
			e.Message = st.Message
		}
	}
	return e
}

func (e *ServiceError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ResponseStatus returns the status carried by the error payload, or nil.
func (e *ServiceError) ResponseStatus() *service.ResponseStatus {
	return service.StatusOf(e.Response)
}

// ApplicationError is a response that succeeded at the transport level but
// whose payload reports an error code. It unwraps to its ServiceError so
// errors.As(err, **ServiceError) matches both kinds.
type ApplicationError struct {
	ServiceError
}

func newApplicationError(payload any, st *service.ResponseStatus) *ApplicationError {
	return &ApplicationError{ServiceError{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  st.ErrorCode,
		Message:    st.Message,
		Response:   payload,
	}}
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application error (%s): %s", e.ErrorCode, e.Message)
}

func (e *ApplicationError) Unwrap() error { return &e.ServiceError }
