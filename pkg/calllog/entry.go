package calllog

import (
	"time"
	"unicode/utf8"
)

// Dispatch kinds.
const (
	KindRoute  = "route"
	KindDirect = "direct"
)

// maxBodySize caps recorded request and response bodies.
const maxBodySize = 10 * 1024

// Entry captures one dispatched request and its outcome.
type Entry struct {
	// ID is a unique identifier for the entry.
	ID string `json:"id"`

	// Timestamp is when dispatch started.
	Timestamp time.Time `json:"timestamp"`

	// Kind is KindRoute for path dispatch and KindDirect for executor calls.
	Kind string `json:"kind"`

	// Operation is the name of the operation that handled the request.
	Operation string `json:"operation,omitempty"`

	Method      string              `json:"method,omitempty"`
	Path        string              `json:"path,omitempty"`
	QueryString string              `json:"queryString,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`

	// Body is the request body, truncated to 10KB.
	Body string `json:"body,omitempty"`

	// StatusCode is the transport status the dispatch resolved to.
	StatusCode int `json:"statusCode"`

	// ResponseBody is the serialized response, truncated to 10KB.
	ResponseBody string `json:"responseBody,omitempty"`

	// ErrorCode is the ResponseStatus error code, if any.
	ErrorCode string `json:"errorCode,omitempty"`

	Duration time.Duration `json:"duration"`

	// Error contains the error message if the dispatch failed.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the dispatch ended in an error.
func (e *Entry) Failed() bool {
	return e.Error != ""
}

// Truncate shortens s to the recorded body limit without splitting a rune.
func Truncate(s string) string {
	if len(s) <= maxBodySize {
		return s
	}
	cut := maxBodySize
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
