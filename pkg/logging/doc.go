// Package logging provides structured logging configuration for directhost.
//
// This package wraps log/slog so the host, the controller and the direct
// client all log the same way. Components accept a *slog.Logger through an
// option; when none is given they use Nop().
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	logger.Debug("dispatch", "method", "GET", "path", "/items/42")
//
// Inside tests, ForTest routes records through t.Log so they only appear for
// failing or verbose runs:
//
//	fx := servicetest.New(t, servicetest.WithLogger(logging.ForTest(t)))
package logging
