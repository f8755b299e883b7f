// Package service is the small service framework the direct client drives.
//
// It defines the pieces a host and a test executor need to agree on:
//
//   - ResponseStatus, the payload convention for application-level errors
//   - HTTPResult and HTTPError, wrappers a service may return instead of a
//     plain payload
//   - ContentTypes, the registry of wire formats (JSON and form by default)
//   - RequestFilter and ResponseFilter, run around every routed invocation
//   - AppHost, the capability surface a host exposes to services
//   - Router, Handler and Executor, implemented by Controller
//
// # Registering services
//
//	ctrl := service.NewController(h)
//	err := service.Register(ctrl, func(ctx context.Context, req *GetItem) (any, error) {
//	    store := service.MustResolve[*ItemStore](ctx)
//	    return store.Get(ctx, req.ID)
//	}, service.Route("/items/{id}", http.MethodGet))
//
// Request objects are built from the JSON or form body, then the query string
// and form values, then path variables, matching on JSON field names.
//
// # Dispatch
//
// ResolveHandler picks the most specific route for a method and path and
// returns a Handler whose BuildRequest and Invoke run the full routed
// pipeline. Execute skips routing and filters and calls the operation
// registered for the request's type directly.
package service
