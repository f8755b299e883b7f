package service

import (
	"context"
	"net/http"
)

// Router resolves a method and path to a Handler.
type Router interface {
	ResolveHandler(method, path string) (Handler, bool)
}

// Handler is the routed unit of service logic.
type Handler interface {
	// OperationName names the operation, usually the request type name.
	OperationName() string

	// BuildRequest creates the request object from the raw request.
	BuildRequest(r *http.Request) (any, error)

	// Invoke runs the service for a request object built by BuildRequest.
	// Service failures are returned as *HTTPError.
	Invoke(w http.ResponseWriter, r *http.Request, request any) (any, error)
}

// Executor runs a request object directly, bypassing routing and filters.
type Executor interface {
	Execute(ctx context.Context, request any) (any, error)
}

// HandlerFuncs adapts a pair of functions to Handler. Used for routes whose
// request object is not a registered Go type.
type HandlerFuncs struct {
	Name   string
	Build  func(r *http.Request) (any, error)
	Handle func(w http.ResponseWriter, r *http.Request, request any) (any, error)
}

// OperationName returns Name.
func (h HandlerFuncs) OperationName() string { return h.Name }

// BuildRequest calls Build, or returns nil when Build is not set.
func (h HandlerFuncs) BuildRequest(r *http.Request) (any, error) {
	if h.Build == nil {
		return nil, nil
	}
	return h.Build(r)
}

// Invoke calls Handle.
func (h HandlerFuncs) Invoke(w http.ResponseWriter, r *http.Request, request any) (any, error) {
	return h.Handle(w, r, request)
}
