package servicetest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/nuxleus/directhost/pkg/calllog"
	"github.com/nuxleus/directhost/pkg/service"
)

// RequestIDHeader carries the ID generated for every dispatched request.
const RequestIDHeader = "X-Request-Id"

// PathRequest describes a request dispatched by path.
type PathRequest struct {
	Method   string
	PathInfo string

	// Query values; a nil value writes the key without "=".
	Query map[string]*string

	// Form is sent url-encoded as the body when non-empty, in place of Body.
	Form map[string]string

	// Body is sent as-is when it is a string, []byte, json.RawMessage or
	// io.Reader, and JSON-encoded otherwise. A zero value sends no body.
	Body any

	// Headers are added to the request.
	Headers map[string]string
}

// ExecutePath dispatches method and pathInfo, which may carry a query string.
func (f *Fixture) ExecutePath(ctx context.Context, method, pathInfo string) (any, error) {
	return f.ExecutePathBody(ctx, method, pathInfo, nil)
}

// ExecutePathBody is ExecutePath with a request body.
func (f *Fixture) ExecutePathBody(ctx context.Context, method, pathInfo string, body any) (any, error) {
	parts := ParseURL(pathInfo)
	return f.Execute(ctx, PathRequest{
		Method:   method,
		PathInfo: parts.PathInfo,
		Query:    parts.Query,
		Body:     body,
	})
}

// ExecutePathAs dispatches like ExecutePathBody and converts the result to T.
func ExecutePathAs[T any](ctx context.Context, f *Fixture, method, pathInfo string, body any) (T, error) {
	res, err := f.ExecutePathBody(ctx, method, pathInfo, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return convert[T](res)
}

// Execute resolves the route for req, builds the request object, runs the
// service and normalizes the outcome:
//
//   - a transport error (an *service.HTTPError, returned or raised, or any
//     other error) is returned as *ServiceError;
//   - a payload whose ResponseStatus has an ErrorCode is returned as
//     *ApplicationError with status 500;
//   - anything else is returned as the unwrapped payload.
func (f *Fixture) Execute(ctx context.Context, req PathRequest) (any, error) {
	method := normalizeMethod(req.Method)
	rawQuery := encodeQuery(req.Query)

	ctx, span := f.tracer.Start(ctx, "servicetest.Execute "+method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", req.PathInfo),
			attribute.String("url.query", rawQuery),
		))
	defer span.End()

	start := time.Now()
	entry := &calllog.Entry{
		Kind:        calllog.KindRoute,
		Method:      method,
		Path:        req.PathInfo,
		QueryString: rawQuery,
	}

	res, err := f.dispatch(ctx, method, req, entry)

	entry.Duration = time.Since(start)
	f.record(span, entry, err)
	return res, err
}

func (f *Fixture) dispatch(ctx context.Context, method string, req PathRequest, entry *calllog.Entry) (any, error) {
	handler, ok := f.controller.ResolveHandler(method, req.PathInfo)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedRoute, method, req.PathInfo)
	}
	entry.Operation = handler.OperationName()

	r, body, err := f.newRequest(ctx, method, req)
	if err != nil {
		return nil, err
	}
	entry.Headers = r.Header.Clone()
	entry.Body = calllog.Truncate(string(body))

	request, err := handler.BuildRequest(r)
	if err != nil {
		return f.normalize(nil, err)
	}

	w := httptest.NewRecorder()
	res, err := handler.Invoke(w, r, request)
	entry.StatusCode = w.Code
	entry.ResponseBody = calllog.Truncate(w.Body.String())
	return f.normalize(res, err)
}

// GetRequest resolves the route for req and returns the request object the
// service would receive, without running the service.
func (f *Fixture) GetRequest(ctx context.Context, req PathRequest) (any, error) {
	method := normalizeMethod(req.Method)
	handler, ok := f.controller.ResolveHandler(method, req.PathInfo)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedRoute, method, req.PathInfo)
	}

	r, _, err := f.newRequest(ctx, method, req)
	if err != nil {
		return nil, err
	}
	request, err := handler.BuildRequest(r)
	if err != nil {
		return nil, newServiceError(service.ToHTTPError(err, f.debug()))
	}
	return request, nil
}

// Send runs request through the direct executor, bypassing routing and
// filters, and normalizes the outcome like Execute.
func (f *Fixture) Send(ctx context.Context, request any) (any, error) {
	operation := fmt.Sprintf("%T", request)
	ctx, span := f.tracer.Start(ctx, "servicetest.Send "+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("directhost.operation", operation)))
	defer span.End()

	start := time.Now()
	entry := &calllog.Entry{Kind: calllog.KindDirect, Operation: operationName(request)}
	if data, err := json.Marshal(request); err == nil {
		entry.Body = calllog.Truncate(string(data))
	}

	res, err := f.controller.Execute(ctx, request)
	if err == nil {
		entry.StatusCode, _, _ = service.Unwrap(res)
	}
	res, err = f.normalize(res, err)

	entry.Duration = time.Since(start)
	f.record(span, entry, err)
	return res, err
}

func (f *Fixture) normalize(res any, err error) (any, error) {
	if err != nil {
		return nil, newServiceError(service.ToHTTPError(err, f.debug()))
	}

	_, payload, isErr := service.Unwrap(res)
	if isErr {
		return nil, newServiceError(res.(*service.HTTPError))
	}
	if st := service.StatusOf(payload); st.IsError() {
		return nil, newApplicationError(payload, st)
	}
	return payload, nil
}

func (f *Fixture) record(span trace.Span, entry *calllog.Entry, err error) {
	var se *ServiceError
	switch {
	case err == nil:
		if entry.StatusCode == 0 {
			entry.StatusCode = http.StatusOK
		}
		span.SetStatus(codes.Ok, "")
	case errors.As(err, &se):
		entry.StatusCode = se.StatusCode
		entry.ErrorCode = se.ErrorCode
		entry.Error = err.Error()
		span.SetStatus(codes.Error, err.Error())
	default:
		entry.StatusCode = failureStatus(err)
		entry.ErrorCode = service.ErrorCode(err)
		entry.Error = err.Error()
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.Int("http.response.status_code", entry.StatusCode),
		attribute.String("directhost.operation", entry.Operation),
	)
	if err != nil {
		span.RecordError(err)
	}

	f.calls.Log(entry)
	f.logger.Debug("dispatched",
		"kind", entry.Kind,
		"operation", entry.Operation,
		"method", entry.Method,
		"path", entry.Path,
		"status", entry.StatusCode,
		"duration", entry.Duration,
		"error", entry.Error)
}

// newRequest builds the request envelope. It returns the body bytes sent.
func (f *Fixture) newRequest(ctx context.Context, method string, req PathRequest) (*http.Request, []byte, error) {
	if strings.ContainsAny(method, " \t\r\n") {
		return nil, nil, fmt.Errorf("invalid method %q", method)
	}
	var (
		body        []byte
		contentType string
	)
	if len(req.Form) > 0 {
		values := make(url.Values, len(req.Form))
		for k, v := range req.Form {
			values.Set(k, v)
		}
		body = []byte(values.Encode())
		contentType = service.MIMEForm
	} else {
		var err error
		body, err = encodeBody(req.Body)
		if err != nil {
			return nil, nil, err
		}
		if body != nil {
			contentType = service.MIMEJSON
		}
	}

	target := (&url.URL{Path: req.PathInfo, RawQuery: encodeQuery(req.Query)}).RequestURI()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	r := httptest.NewRequestWithContext(ctx, method, target, reader)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.Header.Set(RequestIDHeader, uuid.NewString())
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(r.Header))
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	return r, body, nil
}

// encodeBody returns the bytes to send for body, or nil for no body.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		if b == "" {
			return nil, nil
		}
		return []byte(b), nil
	case []byte:
		if len(b) == 0 {
			return nil, nil
		}
		return b, nil
	case json.RawMessage:
		if len(b) == 0 {
			return nil, nil
		}
		return b, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if len(data) == 0 {
			return nil, nil
		}
		return data, nil
	}

	if reflect.ValueOf(body).IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, nil
}

func normalizeMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return http.MethodGet
	}
	return method
}

func operationName(request any) string {
	t := reflect.TypeOf(request)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func (f *Fixture) debug() bool {
	cfg := f.host.Config()
	return cfg != nil && cfg.DebugMode
}
