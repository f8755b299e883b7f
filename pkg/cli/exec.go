package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"

	"github.com/nuxleus/directhost/pkg/calllog"
	"github.com/nuxleus/directhost/pkg/cli/internal/output"
	"github.com/nuxleus/directhost/pkg/service"
	"github.com/nuxleus/directhost/pkg/servicetest"
)

type execOptions struct {
	host    hostOptions
	data    string
	form    []string
	headers []string
	curl    bool
	baseURL string
}

// execResult is the --json form of an exec outcome.
type execResult struct {
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	Operation  string          `json:"operation,omitempty"`
	StatusCode int             `json:"statusCode"`
	ErrorCode  string          `json:"errorCode,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs float64         `json:"durationMs"`
	Body       json.RawMessage `json:"body,omitempty"`
}

func newExecCommand(g *globalOptions) *cobra.Command {
	opts := &execOptions{}
	cmd := &cobra.Command{
		Use:   "exec METHOD PATH",
		Short: "Execute a request in-process and print the response",
		Example: `  # Call the demo item service
  directhost exec --demo POST /items --data '{"name":"widget"}'

  # Answer from fixture files
  directhost exec -f 'fixtures/**/*.yaml' GET '/items/42?verbose=true'

  # Print the equivalent curl command instead of executing
  directhost exec --demo GET /items --curl`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, g, opts, args[0], args[1])
		},
	}
	opts.host.bind(cmd)
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVar(&opts.form, "form", nil, "Form field k=v (repeatable); replaces --data")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Request header 'Name: value' (repeatable)")
	cmd.Flags().BoolVar(&opts.curl, "curl", false, "Print the equivalent curl command instead of executing")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "Base URL used by --curl")
	return cmd
}

func (o *execOptions) request(method, pathInfo string) (servicetest.PathRequest, error) {
	u := servicetest.ParseURL(pathInfo)
	req := servicetest.PathRequest{
		Method:   strings.ToUpper(method),
		PathInfo: u.PathInfo,
		Query:    u.Query,
	}

	if len(o.form) > 0 {
		req.Form = make(map[string]string, len(o.form))
		for _, kv := range o.form {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return req, fmt.Errorf("invalid --form %q: expected k=v", kv)
			}
			req.Form[k] = v
		}
	} else if o.data != "" {
		if !json.Valid([]byte(o.data)) {
			return req, fmt.Errorf("invalid --data: not a JSON document")
		}
		req.Body = json.RawMessage(o.data)
	}

	if len(o.headers) > 0 {
		req.Headers = make(map[string]string, len(o.headers))
		for _, h := range o.headers {
			k, v, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(k) == "" {
				return req, fmt.Errorf("invalid --header %q: expected 'Name: value'", h)
			}
			req.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return req, nil
}

func runExec(cmd *cobra.Command, g *globalOptions, opts *execOptions, method, pathInfo string) error {
	req, err := opts.request(method, pathInfo)
	if err != nil {
		return err
	}

	if opts.curl {
		line := curlCommand(opts.baseURL, req)
		return g.printResult(map[string]string{"curl": line}, func(w io.Writer) {
			fmt.Fprintln(w, line)
		})
	}

	f, cleanup, err := opts.host.newFixture(cmd.Context(), g)
	if err != nil {
		return err
	}
	defer cleanup()

	calls, unsubscribe := f.Calls().Subscribe()
	defer unsubscribe()

	res, execErr := f.Execute(cmd.Context(), req)

	result := execResult{Method: req.Method, Path: pathInfo}
	if e := lastCall(calls); e != nil {
		result.Operation = e.Operation
		result.StatusCode = e.StatusCode
		result.ErrorCode = e.ErrorCode
		result.DurationMs = float64(e.Duration) / float64(time.Millisecond)
	}

	payload := res
	if execErr != nil {
		result.Error = execErr.Error()
		var se *servicetest.ServiceError
		if errors.As(execErr, &se) {
			payload = se.Response
		}
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			result.Body = data
		}
	}

	if err := g.printResult(result, func(w io.Writer) { printExec(w, result) }); err != nil {
		return err
	}
	if execErr != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, req.Method, pathInfo, execErr)
	}
	return nil
}

// lastCall drains the entries already delivered to calls and returns the
// newest. Dispatch logs synchronously, so nothing arrives later.
func lastCall(calls calllog.Subscriber) *calllog.Entry {
	var last *calllog.Entry
	for {
		select {
		case e := <-calls:
			last = e
		default:
			return last
		}
	}
}

func printExec(w io.Writer, r execResult) {
	fmt.Fprintf(w, "%s %s %s\n", output.Status(r.StatusCode), r.Method, r.Path)
	meta := fmt.Sprintf("operation=%s duration=%.3fms", r.Operation, r.DurationMs)
	if r.ErrorCode != "" {
		meta += " errorCode=" + r.ErrorCode
	}
	fmt.Fprintln(w, output.Faint(meta))
	if len(r.Body) > 0 {
		_ = output.JSON(w, r.Body)
	}
}

// curlCommand renders req as a shell-quoted curl invocation against baseURL.
func curlCommand(baseURL string, req servicetest.PathRequest) string {
	var b commandBuilder
	b.add("curl", "-sS", "-X", req.Method)

	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.add("-H", k+": "+req.Headers[k])
	}

	switch {
	case len(req.Form) > 0:
		fields := make([]string, 0, len(req.Form))
		for k := range req.Form {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, k := range fields {
			b.add("--data-urlencode", k+"="+req.Form[k])
		}
	case req.Body != nil:
		b.add("-H", "Content-Type: "+service.MIMEJSON)
		if raw, ok := req.Body.(json.RawMessage); ok {
			b.add("--data", string(raw))
		}
	}

	u := servicetest.URLParts{PathInfo: req.PathInfo, Query: req.Query}
	b.add(strings.TrimRight(baseURL, "/") + u.String())
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
