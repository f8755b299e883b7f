// Package host provides BasicHost, a minimal in-process application host.
//
// BasicHost satisfies service.AppHost with nothing behind it but a container,
// filter lists, a content-type registry and a configuration record. Services
// dispatched through it cannot tell it from a production host, which makes it
// the host used by servicetest fixtures.
package host

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/nuxleus/directhost/pkg/config"
	"github.com/nuxleus/directhost/pkg/container"
	"github.com/nuxleus/directhost/pkg/logging"
	"github.com/nuxleus/directhost/pkg/service"
)

// BasicHost is a fake application host. It is safe for concurrent use.
type BasicHost struct {
	mu              sync.RWMutex
	container       *container.Container
	contentTypes    *service.ContentTypes
	requestFilters  []service.RequestFilter
	responseFilters []service.ResponseFilter
	config          *config.HostConfig
	logger          *slog.Logger
}

var _ service.AppHost = (*BasicHost)(nil)

// Option configures a BasicHost.
type Option func(*BasicHost)

// WithConfig sets the host configuration.
func WithConfig(cfg *config.HostConfig) Option {
	return func(h *BasicHost) {
		if cfg != nil {
			h.config = cfg
		}
	}
}

// WithContainer sets the dependency container.
func WithContainer(c *container.Container) Option {
	return func(h *BasicHost) {
		if c != nil {
			h.container = c
		}
	}
}

// WithLogger sets the host logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *BasicHost) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithContentTypes sets the content-type registry.
func WithContentTypes(ct *service.ContentTypes) Option {
	return func(h *BasicHost) {
		if ct != nil {
			h.contentTypes = ct
		}
	}
}

// New creates a host. Without options it has an empty container, the default
// configuration, JSON and form content types and a discarding logger.
func New(opts ...Option) *BasicHost {
	h := &BasicHost{
		container:    container.New(),
		contentTypes: service.NewContentTypes(),
		config:       config.Default(),
		logger:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Container returns the dependency container.
func (h *BasicHost) Container() *container.Container {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.container
}

// ContentTypes returns the content-type registry.
func (h *BasicHost) ContentTypes() *service.ContentTypes {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.contentTypes
}

// RequestFilters returns a snapshot of the request filters in run order.
func (h *BasicHost) RequestFilters() []service.RequestFilter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.requestFilters)
}

// ResponseFilters returns a snapshot of the response filters in run order.
func (h *BasicHost) ResponseFilters() []service.ResponseFilter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.responseFilters)
}

// AddRequestFilter appends filters run before every routed service.
func (h *BasicHost) AddRequestFilter(filters ...service.RequestFilter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requestFilters = append(h.requestFilters, filters...)
}

// AddResponseFilter appends filters run after every routed service.
func (h *BasicHost) AddResponseFilter(filters ...service.ResponseFilter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responseFilters = append(h.responseFilters, filters...)
}

// Config returns the host configuration.
func (h *BasicHost) Config() *config.HostConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// SetConfig replaces the host configuration. A nil cfg restores the defaults.
func (h *BasicHost) SetConfig(cfg *config.HostConfig) {
	if cfg == nil {
		cfg = config.Default()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.config = cfg
	h.logger.Debug("host config replaced", "serviceName", cfg.ServiceName, "debug", cfg.DebugMode)
}

// Logger returns the host logger.
func (h *BasicHost) Logger() *slog.Logger {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.logger
}

// TryResolve resolves T from the host container, returning the zero value
// when nothing is registered for T.
func TryResolve[T any](h *BasicHost) T {
	return container.TryResolve[T](h.Container())
}
