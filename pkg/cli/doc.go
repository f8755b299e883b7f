// Package cli provides the command-line interface for directhost.
//
// The cli package implements the commands that drive the in-process host:
//   - exec: Dispatch one request to the selected services and print the response
//   - routes: Display the route table
//   - version: Show directhost version
//
// Services are selected with --fixtures (YAML route files) and --demo (the
// built-in SQLite item service). Every command accepts --json for
// machine-readable output on stdout; logs always go to stderr.
package cli
