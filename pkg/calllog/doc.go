// Package calllog records the requests a fixture dispatched so tests can
// inspect and assert on them.
//
// It is distinct from operational logging (log/slog): an Entry is test data,
// not a diagnostic line.
//
// # Usage
//
// The servicetest executor logs one Entry per dispatched request:
//
//	log := calllog.NewMemory(1000)
//	log.Log(&calllog.Entry{Method: "GET", Path: "/items/42", StatusCode: 200})
//	hits := log.List(&calllog.Filter{Method: "GET", Path: "/items"})
//
// # Package Design
//
// This is a leaf package with no internal dependencies, so any package can
// record entries without creating an import cycle.
package calllog
