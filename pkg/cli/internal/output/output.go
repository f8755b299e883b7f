// Package output provides common output formatting utilities.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// JSON writes indented JSON to w.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table creates an aligned table writer for w.
// Remember to call Flush() when done writing.
func Table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Warn prints a warning message to w.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s "+format+"\n", append([]any{yellow("Warning:")}, args...)...)
}

// Status renders an HTTP status colored by class.
func Status(code int) string {
	text := fmt.Sprintf("%d %s", code, http.StatusText(code))
	switch {
	case code >= 500:
		return red(text)
	case code >= 400:
		return yellow(text)
	default:
		return green(text)
	}
}

// Faint renders s de-emphasized.
func Faint(s string) string {
	return faint(s)
}

// DisableColor turns off color for all output.
func DisableColor() {
	color.NoColor = true
}
