package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/nuxleus/directhost/internal/matching"
	"github.com/nuxleus/directhost/pkg/config"
	"github.com/nuxleus/directhost/pkg/logging"
)

// Controller errors.
var (
	ErrNoService          = errors.New("no service registered for request type")
	ErrDuplicateOperation = errors.New("operation already registered")
	ErrInvalidRequestType = errors.New("request type must be a struct")
	ErrNilRequest         = errors.New("request cannot be nil")
)

// RouteSpec declares a path pattern and the verbs it answers to.
// No verbs means any verb.
type RouteSpec struct {
	Path  string
	Verbs []string
}

// Route builds a RouteSpec.
func Route(path string, verbs ...string) RouteSpec {
	return RouteSpec{Path: path, Verbs: verbs}
}

// RouteInfo describes one entry of the route table.
type RouteInfo struct {
	Verbs     []string `json:"verbs,omitempty"`
	Path      string   `json:"path"`
	Operation string   `json:"operation"`
}

type route struct {
	verbs   []string
	pattern *matching.Pattern
	handler Handler
}

func (r *route) accepts(method string) bool {
	return len(r.verbs) == 0 || slices.Contains(r.verbs, method)
}

// Controller owns the route table and the operations registered against it.
// It implements Router and Executor and is safe for concurrent use.
type Controller struct {
	host   AppHost
	logger *slog.Logger

	mu     sync.RWMutex
	routes []*route
	ops    map[reflect.Type]*operation
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger. Defaults to the host logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a controller serving services for host.
func NewController(host AppHost, opts ...Option) *Controller {
	c := &Controller{
		host: host,
		ops:  make(map[reflect.Type]*operation),
	}
	if host != nil && host.Logger() != nil {
		c.logger = host.Logger()
	} else {
		c.logger = logging.Nop()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host returns the host the controller dispatches for.
func (c *Controller) Host() AppHost { return c.host }

// Register adds an operation for request type Req and binds it to routes.
// The operation is named after Req.
func Register[Req any](c *Controller, fn func(ctx context.Context, req *Req) (any, error), routes ...RouteSpec) error {
	t := reflect.TypeFor[Req]()
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s", ErrInvalidRequestType, t)
	}

	op := &operation{
		c:    c,
		name: t.Name(),
		typ:  t,
		call: func(ctx context.Context, req any) (any, error) {
			return fn(ctx, req.(*Req))
		},
	}

	c.mu.Lock()
	if _, exists := c.ops[t]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateOperation, op.name)
	}
	c.ops[t] = op
	c.mu.Unlock()

	for _, rs := range routes {
		if err := c.addRoute(rs.Path, rs.Verbs, op); err != nil {
			return err
		}
	}

	c.logger.Debug("registered operation", "operation", op.name, "routes", len(routes))
	return nil
}

// AddHandler binds a raw Handler to a path pattern.
func (c *Controller) AddHandler(pattern string, h Handler, verbs ...string) error {
	if h == nil {
		return errors.New("handler cannot be nil")
	}
	return c.addRoute(pattern, verbs, h)
}

func (c *Controller) addRoute(pattern string, verbs []string, h Handler) error {
	p, err := matching.Compile(pattern)
	if err != nil {
		return err
	}

	upper := make([]string, 0, len(verbs))
	for _, v := range verbs {
		for _, part := range strings.Split(v, ",") {
			if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
				upper = append(upper, part)
			}
		}
	}

	c.mu.Lock()
	c.routes = append(c.routes, &route{verbs: upper, pattern: p, handler: h})
	c.mu.Unlock()
	return nil
}

// ResolveHandler returns the handler of the most specific route matching
// method and path. Ties go to the route registered first.
func (c *Controller) ResolveHandler(method, path string) (Handler, bool) {
	method = strings.ToUpper(method)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		best      *route
		bestScore int
		bestVars  map[string]string
	)
	for _, rt := range c.routes {
		if !rt.accepts(method) {
			continue
		}
		score, vars := rt.pattern.Match(path)
		if score > bestScore {
			best, bestScore, bestVars = rt, score, vars
		}
	}
	if best == nil {
		return nil, false
	}
	return &boundHandler{c: c, inner: best.handler, vars: bestVars}, true
}

// Execute runs the operation registered for the type of request. request may
// be a struct value or a pointer to one. Filters are not run.
func (c *Controller) Execute(ctx context.Context, request any) (any, error) {
	if request == nil {
		return nil, ErrNilRequest
	}

	t := reflect.TypeOf(request)
	isPtr := t.Kind() == reflect.Pointer
	if isPtr {
		t = t.Elem()
	}

	c.mu.RLock()
	op, ok := c.ops[t]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoService, t)
	}

	arg := request
	if !isPtr {
		p := reflect.New(t)
		p.Elem().Set(reflect.ValueOf(request))
		arg = p.Interface()
	}

	c.logger.Debug("direct execute", "operation", op.name)
	return op.call(WithHost(ctx, c.host), arg)
}

// Routes returns the route table in registration order.
func (c *Controller) Routes() []RouteInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]RouteInfo, 0, len(c.routes))
	for _, rt := range c.routes {
		out = append(out, RouteInfo{
			Verbs:     slices.Clone(rt.verbs),
			Path:      rt.pattern.String(),
			Operation: rt.handler.OperationName(),
		})
	}
	return out
}

// Operations returns the names of the registered operations, sorted.
func (c *Controller) Operations() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.ops))
	for _, op := range c.ops {
		names = append(names, op.name)
	}
	slices.Sort(names)
	return names
}

func (c *Controller) config() *config.HostConfig {
	if c.host != nil && c.host.Config() != nil {
		return c.host.Config()
	}
	return config.Default()
}

func defaultContentType(cfg *config.HostConfig) string {
	if cfg.DefaultContentType == "" {
		return config.DefaultContentType
	}
	return cfg.DefaultContentType
}

func (c *Controller) contentTypes() *ContentTypes {
	if c.host != nil && c.host.ContentTypes() != nil {
		return c.host.ContentTypes()
	}
	return NewContentTypes()
}

// operation is a typed service registered with Register.
type operation struct {
	c    *Controller
	name string
	typ  reflect.Type
	call func(ctx context.Context, req any) (any, error)
}

func (o *operation) OperationName() string { return o.name }

// BuildRequest populates a new request object from the body, then the query
// string, then the path variables.
func (o *operation) BuildRequest(r *http.Request) (any, error) {
	req := reflect.New(o.typ).Interface()

	if err := o.c.decodeBody(r, req); err != nil {
		return nil, &HTTPError{StatusCode: http.StatusBadRequest, Message: err.Error(), Err: err,
			Response: &ErrorResponse{ResponseStatusHolder{ResponseStatus: &ResponseStatus{ErrorCode: "SerializationError", Message: err.Error()}}}}
	}
	if err := Bind(req, ValuesToMap(r.URL.Query())); err != nil {
		return nil, Errorf(http.StatusBadRequest, "query: %v", err)
	}
	if err := Bind(req, StringsToMap(PathParams(r))); err != nil {
		return nil, Errorf(http.StatusBadRequest, "path: %v", err)
	}
	return req, nil
}

func (o *operation) Invoke(_ http.ResponseWriter, r *http.Request, request any) (any, error) {
	return o.call(r.Context(), request)
}

// decodeBody reads the body with the serializer for its content type and
// leaves a fresh copy on r for filters.
func (c *Controller) decodeBody(r *http.Request, target any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if len(data) == 0 {
		return nil
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType(c.config())
	}
	return c.contentTypes().Deserialize(contentType, bytes.NewReader(data), target)
}

// boundHandler runs a route's handler with the host and path variables in
// the request context, wrapped in the host filters.
type boundHandler struct {
	c     *Controller
	inner Handler
	vars  map[string]string
}

func (b *boundHandler) OperationName() string { return b.inner.OperationName() }

func (b *boundHandler) prepare(r *http.Request) *http.Request {
	ctx := WithHost(r.Context(), b.c.host)
	ctx = withPathParams(ctx, b.vars)
	return r.WithContext(ctx)
}

func (b *boundHandler) BuildRequest(r *http.Request) (any, error) {
	req, err := b.inner.BuildRequest(b.prepare(r))
	if err != nil {
		return nil, ToHTTPError(err, b.c.config().DebugMode)
	}
	return req, nil
}

func (b *boundHandler) Invoke(w http.ResponseWriter, r *http.Request, request any) (any, error) {
	r = b.prepare(r)
	cfg := b.c.config()
	logger := b.c.logger.With("operation", b.inner.OperationName(), "method", r.Method, "path", r.URL.Path)

	for k, v := range cfg.GlobalResponseHeaders {
		w.Header().Set(k, v)
	}

	var host AppHost = b.c.host
	if host != nil {
		for i, f := range host.RequestFilters() {
			if err := f(w, r, request); err != nil {
				logger.Debug("request filter aborted", "filter", i, "error", err)
				he := ToHTTPError(err, cfg.DebugMode)
				b.c.writeResponse(w, cfg, he)
				return nil, he
			}
		}
	}

	res, err := b.inner.Invoke(w, r, request)
	if err != nil {
		he := ToHTTPError(err, cfg.DebugMode)
		logger.Debug("service failed", "status", he.Status(), "error", err)
		b.c.writeResponse(w, cfg, he)
		return nil, he
	}

	if host != nil {
		for i, f := range host.ResponseFilters() {
			if err := f(w, r, res); err != nil {
				logger.Debug("response filter aborted", "filter", i, "error", err)
				he := ToHTTPError(err, cfg.DebugMode)
				b.c.writeResponse(w, cfg, he)
				return nil, he
			}
		}
	}

	b.c.writeResponse(w, cfg, res)
	return res, nil
}

// writeResponse renders a result onto w so the response side of the fake
// request pair reflects what a real server would have sent.
func (c *Controller) writeResponse(w http.ResponseWriter, cfg *config.HostConfig, res any) {
	status, payload, _ := Unwrap(res)
	var headers http.Header
	switch r := res.(type) {
	case *HTTPError:
		if r != nil {
			headers = r.Headers
		}
	case *HTTPResult:
		if r != nil {
			headers = r.Headers
		}
	}
	for k, vs := range headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	contentType := defaultContentType(cfg)
	if payload != nil {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := c.contentTypes().Serialize(contentType, w, payload); err != nil {
		c.logger.Debug("failed to write response body", "error", err)
	}
}
