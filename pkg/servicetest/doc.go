// Package servicetest runs services in-process for tests.
//
// A Fixture owns a host, a controller and a call log. Services are registered
// on the controller and dispatched either by path, through routing, request
// binding and host filters, or directly by request type. No socket is opened.
//
// # Basic Usage
//
//	func TestGetItem(t *testing.T) {
//	    f := servicetest.New(t)
//	    err := service.Register(f.Controller(), getItem, service.Route("/items/{id}", "GET"))
//	    require.NoError(t, err)
//
//	    res, err := f.ExecutePath(ctx, "GET", "/items/42?verbose=true")
//	    require.NoError(t, err)
//	    f.AssertCalled(t, "GET", "/items/{id}")
//	}
//
// # Outcomes
//
// Execute normalizes what a service produced:
//
//   - a transport failure becomes *ServiceError carrying the status code,
//     message and error payload;
//   - a payload whose ResponseStatus has a non-empty ErrorCode becomes
//     *ApplicationError with status 500;
//   - anything else is returned unchanged, with result wrappers removed.
//
// An unknown method and path returns ErrUnsupportedRoute.
//
// # Direct Client
//
// Client mirrors a service client. Typed helpers convert results:
//
//	c := f.Client()
//	item, err := servicetest.Get[*ItemResponse](ctx, c, "/items/42")
//
//	servicetest.GetAsync(ctx, c, "/items/42",
//	    func(r *ItemResponse) { ... },
//	    func(r *ItemResponse, err error) { ... })
//
// The async variants call exactly one callback. On failure the callback gets
// a new response whose ResponseStatus describes the error.
//
// # Canned Routes
//
//	f.Route("GET", "/ping").
//	    WithJSON(map[string]string{"pong": "ok"}).
//	    Reply()
package servicetest
