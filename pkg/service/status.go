package service

import (
	"errors"
	"reflect"
	"runtime/debug"
	"unicode"
)

// ResponseStatus carries an application-level error independent of the
// transport status. A payload signals failure by setting a non-empty ErrorCode.
type ResponseStatus struct {
	ErrorCode  string          `json:"errorCode,omitempty" yaml:"errorCode,omitempty"`
	Message    string          `json:"message,omitempty" yaml:"message,omitempty"`
	StackTrace string          `json:"stackTrace,omitempty" yaml:"stackTrace,omitempty"`
	Errors     []ResponseError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ResponseError describes a single field-level failure.
type ResponseError struct {
	ErrorCode string `json:"errorCode" yaml:"errorCode"`
	FieldName string `json:"fieldName,omitempty" yaml:"fieldName,omitempty"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// IsError reports whether the status describes a failure.
func (s *ResponseStatus) IsError() bool {
	return s != nil && s.ErrorCode != ""
}

// StatusReporter is implemented by payloads that expose a response status.
type StatusReporter interface {
	GetResponseStatus() *ResponseStatus
}

// HasResponseStatus is implemented by payloads whose response status can be set.
type HasResponseStatus interface {
	StatusReporter
	SetResponseStatus(*ResponseStatus)
}

// ResponseStatusHolder can be embedded in response types to satisfy
// HasResponseStatus.
//
//	type GetItemResponse struct {
//	    Item *Item `json:"item,omitempty"`
//	    service.ResponseStatusHolder
//	}
type ResponseStatusHolder struct {
	ResponseStatus *ResponseStatus `json:"responseStatus,omitempty" yaml:"responseStatus,omitempty"`
}

// GetResponseStatus returns the embedded status, which may be nil.
func (h ResponseStatusHolder) GetResponseStatus() *ResponseStatus { return h.ResponseStatus }

// SetResponseStatus replaces the embedded status.
func (h *ResponseStatusHolder) SetResponseStatus(s *ResponseStatus) { h.ResponseStatus = s }

// StatusPayload pairs a body with a ResponseStatus for responses that have no
// type of their own, such as canned and fixture routes.
type StatusPayload struct {
	Body           any             `json:"body,omitempty" yaml:"body,omitempty"`
	ResponseStatus *ResponseStatus `json:"responseStatus,omitempty" yaml:"responseStatus,omitempty"`
}

// GetResponseStatus returns the attached status.
func (p *StatusPayload) GetResponseStatus() *ResponseStatus { return p.ResponseStatus }

// ErrorResponse is the payload of errors raised by services that return
// nothing more specific.
type ErrorResponse struct {
	ResponseStatusHolder
}

// StatusOf returns the response status exposed by v, or nil.
func StatusOf(v any) *ResponseStatus {
	if r, ok := v.(StatusReporter); ok {
		return r.GetResponseStatus()
	}
	return nil
}

// ErrorCoder lets an error choose the ErrorCode reported in a ResponseStatus.
type ErrorCoder interface {
	ErrorCode() string
}

// ErrorCode returns the code reported for err: the ErrorCode of the first
// ErrorCoder in the chain, else the name of the first exported error type,
// else "Error".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coder ErrorCoder
	if errors.As(err, &coder) {
		return coder.ErrorCode()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		t := reflect.TypeOf(e)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if name := t.Name(); name != "" && unicode.IsUpper(rune(name[0])) {
			return name
		}
	}
	return "Error"
}

// NewResponseStatus builds the status reported for err. The stack trace is
// only captured when withStack is set.
func NewResponseStatus(err error, withStack bool) *ResponseStatus {
	if err == nil {
		return nil
	}
	s := &ResponseStatus{
		ErrorCode: ErrorCode(err),
		Message:   err.Error(),
	}
	if withStack {
		s.StackTrace = string(debug.Stack())
	}
	return s
}
