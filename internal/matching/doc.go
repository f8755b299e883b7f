// Package matching implements the path patterns used by the service route table.
//
// A pattern is a slash-separated path whose segments are one of:
//
//   - a literal, compared case-insensitively: /items
//   - a named variable: /items/{id}
//   - a trailing wildcard capturing the rest of the path: /files/*
//
// Matches are scored so the route table can pick the most specific route when
// several patterns accept the same path. Score constants live in path.go.
package matching
