package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nuxleus/directhost/pkg/config"
	"github.com/nuxleus/directhost/pkg/container"
)

// RequestFilter runs before a routed service. Returning an error aborts the
// request; an *HTTPError keeps its status, anything else becomes a 500.
type RequestFilter func(w http.ResponseWriter, r *http.Request, request any) error

// ResponseFilter runs after a routed service with the value it returned.
type ResponseFilter func(w http.ResponseWriter, r *http.Request, response any) error

// AppHost is the capability surface a host exposes to the services it runs.
// A test host and a production host satisfy the same contract so services
// cannot tell them apart.
type AppHost interface {
	Container() *container.Container
	ContentTypes() *ContentTypes
	RequestFilters() []RequestFilter
	ResponseFilters() []ResponseFilter
	Config() *config.HostConfig
	Logger() *slog.Logger
}

type hostKey struct{}

type pathParamsKey struct{}

// WithHost returns a context carrying h.
func WithHost(ctx context.Context, h AppHost) context.Context {
	return context.WithValue(ctx, hostKey{}, h)
}

// HostFromContext returns the host that dispatched the current request.
func HostFromContext(ctx context.Context) (AppHost, bool) {
	h, ok := ctx.Value(hostKey{}).(AppHost)
	return h, ok
}

// Resolve resolves T from the container of the host in ctx.
func Resolve[T any](ctx context.Context) (T, error) {
	h, ok := HostFromContext(ctx)
	if !ok {
		var zero T
		return zero, container.ErrNotRegistered
	}
	return container.Resolve[T](h.Container())
}

// TryResolve is Resolve returning the zero value on failure.
func TryResolve[T any](ctx context.Context) T {
	v, _ := Resolve[T](ctx)
	return v
}

// MustResolve is Resolve panicking on failure.
func MustResolve[T any](ctx context.Context) T {
	v, err := Resolve[T](ctx)
	if err != nil {
		panic(err)
	}
	return v
}

func withPathParams(ctx context.Context, vars map[string]string) context.Context {
	return context.WithValue(ctx, pathParamsKey{}, vars)
}

// PathParams returns the variables captured from the route pattern.
func PathParams(r *http.Request) map[string]string {
	vars, _ := r.Context().Value(pathParamsKey{}).(map[string]string)
	return vars
}
