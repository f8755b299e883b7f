package cli

import "errors"

// Common CLI errors
var (
	ErrNoRoutes      = errors.New("no routes configured: pass --fixtures GLOB or --demo")
	ErrRequestFailed = errors.New("request failed")
)
