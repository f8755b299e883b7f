package service

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ValidationError struct{ Field string }

func (e *ValidationError) Error() string { return e.Field + " is invalid" }

type codedError struct{}

func (codedError) Error() string     { return "coded" }
func (codedError) ErrorCode() string { return "Conflict" }

func TestErrorCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "anonymous", err: errors.New("x"), want: "Error"},
		{name: "typed", err: &ValidationError{Field: "name"}, want: "ValidationError"},
		{name: "wrapped typed", err: fmt.Errorf("saving: %w", &ValidationError{Field: "name"}), want: "ValidationError"},
		{name: "coder", err: fmt.Errorf("outer: %w", codedError{}), want: "Conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestNewError(t *testing.T) {
	t.Parallel()

	he := NewError(http.StatusNotFound, "item 3 not found")
	assert.Equal(t, 404, he.Status())
	assert.Equal(t, "http error 404: item 3 not found", he.Error())

	status := StatusOf(he.Payload())
	require.NotNil(t, status)
	assert.Equal(t, "NotFound", status.ErrorCode)
	assert.Equal(t, "item 3 not found", status.Message)

	assert.Equal(t, "Status599", StatusOf(NewError(599, "odd").Payload()).ErrorCode)
	assert.Equal(t, 500, (&HTTPError{}).Status())
}

func TestToHTTPError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ToHTTPError(nil, false))

	original := NewError(http.StatusConflict, "dup")
	assert.Same(t, original, ToHTTPError(fmt.Errorf("wrap: %w", original), false))

	he := ToHTTPError(&ValidationError{Field: "name"}, true)
	assert.Equal(t, 500, he.Status())
	assert.Equal(t, "name is invalid", he.Message)
	status := StatusOf(he.Payload())
	require.NotNil(t, status)
	assert.Equal(t, "ValidationError", status.ErrorCode)
	assert.NotEmpty(t, status.StackTrace)
	assert.ErrorAs(t, he, new(*ValidationError))
}

func TestToHTTPErrorNilPointer(t *testing.T) {
	t.Parallel()

	var typed *HTTPError
	var err error = typed

	he := ToHTTPError(err, false)
	require.NotNil(t, he)
	assert.Equal(t, http.StatusInternalServerError, he.Status())
	assert.Equal(t, "http error: <nil>", he.Message)
	assert.Equal(t, "HTTPError", StatusOf(he.Payload()).ErrorCode)

	wrapped := ToHTTPError(fmt.Errorf("saving: %w", err), false)
	require.NotNil(t, wrapped)
	assert.Equal(t, http.StatusInternalServerError, wrapped.Status())
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	payload := map[string]int{"n": 1}

	status, got, isErr := Unwrap(payload)
	assert.Equal(t, 200, status)
	assert.Equal(t, payload, got)
	assert.False(t, isErr)

	status, got, isErr = Unwrap(NewResult(http.StatusCreated, payload))
	assert.Equal(t, 201, status)
	assert.Equal(t, payload, got)
	assert.False(t, isErr)

	status, _, isErr = Unwrap(NewError(http.StatusTeapot, "short and stout"))
	assert.Equal(t, 418, status)
	assert.True(t, isErr)

	assert.Equal(t, 200, (&HTTPResult{}).Status())

	status, got, isErr = Unwrap((*HTTPError)(nil))
	assert.Equal(t, 200, status)
	assert.Nil(t, got)
	assert.False(t, isErr)

	status, got, isErr = Unwrap((*HTTPResult)(nil))
	assert.Equal(t, 200, status)
	assert.Nil(t, got)
	assert.False(t, isErr)
}

func TestResponseStatusHolder(t *testing.T) {
	t.Parallel()

	var resp ItemResponse
	var _ HasResponseStatus = &resp

	assert.Nil(t, StatusOf(resp))
	assert.False(t, StatusOf(&resp).IsError())

	resp.SetResponseStatus(&ResponseStatus{ErrorCode: "ValidationError"})
	assert.True(t, StatusOf(&resp).IsError())
	assert.Nil(t, StatusOf("plain"))
}

func TestContentTypes(t *testing.T) {
	t.Parallel()

	ct := NewContentTypes()
	assert.ElementsMatch(t, []string{MIMEJSON, MIMEForm}, ct.ContentTypes())

	_, ok := ct.Lookup("application/json; charset=utf-8")
	assert.True(t, ok)

	var buf bytes.Buffer
	err := ct.Serialize("text/csv", &buf, nil)
	assert.ErrorIs(t, err, ErrUnsupportedContentType)

	require.NoError(t, ct.Serialize(MIMEForm, &buf, map[string]string{"b": "2", "a": "1"}))
	assert.Equal(t, "a=1&b=2", buf.String())

	buf.Reset()
	require.NoError(t, ct.Serialize(MIMEForm, &buf, GetItem{ID: 4, Name: "x y"}))
	values, err := url.ParseQuery(buf.String())
	require.NoError(t, err)
	assert.Equal(t, "4", values.Get("id"))
	assert.Equal(t, "x y", values.Get("name"))
	assert.Equal(t, "false", values.Get("verbose"))

	var item GetItem
	require.NoError(t, ct.Deserialize(MIMEJSON, strings.NewReader(""), &item))
	require.NoError(t, ct.Deserialize(MIMEForm, strings.NewReader("id=8&name=nut"), &item))
	assert.Equal(t, GetItem{ID: 8, Name: "nut"}, item)
}

func TestBind(t *testing.T) {
	t.Parallel()

	type search struct {
		Tags  []string  `json:"tags"`
		Limit int       `json:"limit"`
		Since time.Time `json:"since"`
		Skip  string    `json:"skip"`
	}

	values := url.Values{
		"tags":  {"a", "b"},
		"limit": {"25"},
		"since": {"2024-01-02T03:04:05Z"},
	}

	s := search{Skip: "kept"}
	require.NoError(t, Bind(&s, ValuesToMap(values)))
	assert.Equal(t, []string{"a", "b"}, s.Tags)
	assert.Equal(t, 25, s.Limit)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), s.Since.UTC())
	assert.Equal(t, "kept", s.Skip)

	err := Bind(&s, map[string]any{"limit": "many"})
	assert.Error(t, err)

	assert.NoError(t, Bind(&s, nil))
}
