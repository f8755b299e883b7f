package servicetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/nuxleus/directhost/pkg/service"
)

// RouteBuilder registers a canned route on a fixture using a fluent API.
type RouteBuilder struct {
	f       *Fixture
	method  string
	path    string
	name    string
	status  int
	headers http.Header
	body    any
	rs      *service.ResponseStatus
	times   int
	err     error
}

// Route starts building a canned route answering method and path.
//
//	f.Route("GET", "/ping").
//	    WithJSON(map[string]string{"pong": "ok"}).
//	    Reply()
func (f *Fixture) Route(method, path string) *RouteBuilder {
	return &RouteBuilder{
		f:       f,
		method:  strings.ToUpper(method),
		path:    path,
		status:  http.StatusOK,
		headers: make(http.Header),
	}
}

// setError records the first error encountered during building.
func (b *RouteBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *RouteBuilder) Err() error {
	return b.err
}

// WithName sets the operation name reported for the route.
func (b *RouteBuilder) WithName(name string) *RouteBuilder {
	b.name = name
	return b
}

// WithStatus sets the response status. Statuses of 400 and above make the
// route fail with an HTTPError.
func (b *RouteBuilder) WithStatus(status int) *RouteBuilder {
	b.status = status
	return b
}

// WithBody sets the response payload as-is.
func (b *RouteBuilder) WithBody(body any) *RouteBuilder {
	b.body = body
	return b
}

// WithJSON sets the response payload to the decoded JSON form of body, so
// string and []byte documents are parsed rather than returned verbatim.
func (b *RouteBuilder) WithJSON(body any) *RouteBuilder {
	var data []byte
	switch v := body.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
			return b
		}
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		b.setError(fmt.Errorf("WithJSON: invalid JSON: %w", err))
		return b
	}
	b.body = decoded
	b.headers.Set("Content-Type", service.MIMEJSON)
	return b
}

// WithHeader adds a response header.
func (b *RouteBuilder) WithHeader(key, value string) *RouteBuilder {
	b.headers.Add(key, value)
	return b
}

// WithResponseStatus sets an application-level status on the payload.
// A non-empty code makes the route report an application error.
func (b *RouteBuilder) WithResponseStatus(errorCode, message string) *RouteBuilder {
	b.rs = &service.ResponseStatus{ErrorCode: errorCode, Message: message}
	return b
}

// Times limits how many times the route answers. After n calls it fails
// with 404. Zero means unlimited.
func (b *RouteBuilder) Times(n int) *RouteBuilder {
	b.times = n
	return b
}

// Once is a convenience method for Times(1).
func (b *RouteBuilder) Once() *RouteBuilder {
	return b.Times(1)
}

// Build registers the route and returns the first error encountered.
func (b *RouteBuilder) Build() error {
	if b.err != nil {
		return b.err
	}
	name := b.name
	if name == "" {
		name = b.method + " " + b.path
	}
	route := *b
	route.headers = b.headers.Clone()
	return b.f.controller.AddHandler(b.path, &cannedHandler{route: route, name: name}, b.method)
}

// Reply is Build for fluent chains. Build errors are logged.
//
//	f.Route("GET", "/api").WithStatus(200).Reply()
func (b *RouteBuilder) Reply() {
	if err := b.Build(); err != nil {
		b.f.logger.Error("failed to register route", "method", b.method, "path", b.path, "error", err)
	}
}

// RespondNotFound configures a 404 Not Found response.
func (b *RouteBuilder) RespondNotFound() *RouteBuilder {
	return b.WithStatus(http.StatusNotFound)
}

// RespondCreated configures a 201 Created response.
func (b *RouteBuilder) RespondCreated(body any) *RouteBuilder {
	return b.WithStatus(http.StatusCreated).WithJSON(body)
}

type cannedHandler struct {
	route RouteBuilder
	name  string

	mu    sync.Mutex
	calls int
}

func (h *cannedHandler) OperationName() string { return h.name }

func (h *cannedHandler) BuildRequest(*http.Request) (any, error) { return nil, nil }

func (h *cannedHandler) Invoke(http.ResponseWriter, *http.Request, any) (any, error) {
	h.mu.Lock()
	h.calls++
	exhausted := h.route.times > 0 && h.calls > h.route.times
	h.mu.Unlock()
	if exhausted {
		return nil, service.Errorf(http.StatusNotFound, "%s answered %d times", h.name, h.route.times)
	}

	if h.route.status >= http.StatusBadRequest {
		he := service.NewError(h.route.status, http.StatusText(h.route.status))
		he.Headers = h.route.headers.Clone()
		if h.route.body != nil {
			he.Response = h.route.body
		}
		return he, nil
	}

	var payload any = h.route.body
	if h.route.rs != nil {
		payload = &service.StatusPayload{Body: h.route.body, ResponseStatus: h.route.rs}
	}
	return &service.HTTPResult{
		StatusCode: h.route.status,
		Headers:    h.route.headers.Clone(),
		Response:   payload,
	}, nil
}
