package servicetest

import (
	"log/slog"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/nuxleus/directhost/internal/matching"
	"github.com/nuxleus/directhost/pkg/calllog"
	"github.com/nuxleus/directhost/pkg/config"
	"github.com/nuxleus/directhost/pkg/container"
	"github.com/nuxleus/directhost/pkg/host"
	"github.com/nuxleus/directhost/pkg/logging"
	"github.com/nuxleus/directhost/pkg/service"
)

const tracerName = "github.com/nuxleus/directhost/pkg/servicetest"

// Fixture is an in-process host, controller and call log for testing
// services without a network.
type Fixture struct {
	host       *host.BasicHost
	controller *service.Controller
	calls      calllog.Store
	tracer     trace.Tracer
	logger     *slog.Logger

	configureOnce sync.Once
	configureErr  error
	configured    bool
	mu            sync.Mutex
}

// Option configures a Fixture.
type Option func(*options)

type options struct {
	host           *host.BasicHost
	config         *config.HostConfig
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	calls          calllog.Store
}

// WithHost uses an existing host instead of creating one.
func WithHost(h *host.BasicHost) Option {
	return func(o *options) { o.host = h }
}

// WithConfig sets the host configuration.
func WithConfig(cfg *config.HostConfig) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger sets the logger shared by the fixture, host and controller.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider sets the provider used for dispatch spans. Defaults to
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithCallLog sets the store dispatched requests are recorded in.
func WithCallLog(s calllog.Store) Option {
	return func(o *options) { o.calls = s }
}

// New creates a fixture whose logs go to t.
func New(t testing.TB, opts ...Option) *Fixture {
	t.Helper()
	return NewFixture(append([]Option{WithLogger(logging.ForTest(t))}, opts...)...)
}

// NewFixture creates a fixture outside a test, for tools that dispatch
// requests in-process.
func NewFixture(opts ...Option) *Fixture {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.calls == nil {
		o.calls = calllog.NewMemory(0)
	}

	h := o.host
	if h == nil {
		h = host.New(host.WithLogger(o.logger))
	}
	if o.config != nil {
		h.SetConfig(o.config)
	}

	return &Fixture{
		host:       h,
		controller: service.NewController(h, service.WithLogger(o.logger)),
		calls:      o.calls,
		tracer:     o.tracerProvider.Tracer(tracerName),
		logger:     o.logger,
	}
}

// Configure runs fn against the host container the first time it is called.
// Later calls do nothing and return the first call's error.
func (f *Fixture) Configure(fn func(c *container.Container) error) error {
	f.configureOnce.Do(func() {
		f.configureErr = fn(f.host.Container())
		f.mu.Lock()
		f.configured = true
		f.mu.Unlock()
	})
	return f.configureErr
}

// HasConfigured reports whether Configure has run.
func (f *Fixture) HasConfigured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

// Host returns the fixture's host.
func (f *Fixture) Host() *host.BasicHost { return f.host }

// Container returns the host container.
func (f *Fixture) Container() *container.Container { return f.host.Container() }

// Controller returns the route table and direct executor.
func (f *Fixture) Controller() *service.Controller { return f.controller }

// Routes returns the route table.
func (f *Fixture) Routes() []service.RouteInfo { return f.controller.Routes() }

// Config returns the host configuration.
func (f *Fixture) Config() *config.HostConfig { return f.host.Config() }

// Calls returns the call log.
func (f *Fixture) Calls() calllog.Store { return f.calls }

// Logger returns the fixture logger.
func (f *Fixture) Logger() *slog.Logger { return f.logger }

// Client returns a direct client dispatching through the fixture.
func (f *Fixture) Client() *Client { return &Client{f: f} }

// Reset clears the call log.
func (f *Fixture) Reset() { f.calls.Clear() }

// AssertCalled asserts that a route matching method and path was dispatched.
// path may be a pattern such as /items/{id}.
func (f *Fixture) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if f.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that a route was dispatched exactly times times.
func (f *Fixture) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	count := f.countCalls(method, path)
	if count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that a route was never dispatched.
func (f *Fixture) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	count := f.countCalls(method, path)
	if count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

// AssertExecuted asserts that operation handled at least one request,
// routed or direct.
func (f *Fixture) AssertExecuted(t testing.TB, operation string) {
	t.Helper()

	if len(f.calls.List(&calllog.Filter{Operation: operation})) == 0 {
		t.Errorf("expected operation %s to be executed, but it was not", operation)
	}
}

func (f *Fixture) countCalls(method, path string) int {
	entries := f.calls.List(&calllog.Filter{Kind: calllog.KindRoute, Method: method})

	count := 0
	for _, e := range entries {
		if e.Path == path || matching.MatchPath(path, e.Path) > 0 {
			count++
		}
	}
	return count
}
