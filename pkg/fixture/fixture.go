// Package fixture declares canned service routes in YAML or JSON and
// registers them on a service controller.
//
// A fixture file lists routes:
//
//	routes:
//	  - name: GetWidget
//	    method: GET
//	    path: /items/{id}
//	    when: 'path.id == "42"'
//	    status: 200
//	    body: {id: 42, name: widget}
//	  - method: POST
//	    path: /items
//	    schema: {type: object, required: [name]}
//	    status: 201
//	    body: {created: true}
//
// Routes sharing a method and path are tried in file order; the first whose
// condition holds answers. Conditions are expr-lang expressions over path,
// query, headers, form, body and method. A schema validates the JSON request
// body before the route answers.
package fixture

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nuxleus/directhost/pkg/service"
)

// ErrInvalidFixture is returned for fixtures that cannot be registered.
var ErrInvalidFixture = errors.New("invalid fixture")

// Set is the content of one or more fixture files.
type Set struct {
	Routes []Route `json:"routes" yaml:"routes"`
}

// Route is one canned answer.
type Route struct {
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	Method  string            `json:"method,omitempty" yaml:"method,omitempty"`
	Path    string            `json:"path" yaml:"path"`
	When    string            `json:"when,omitempty" yaml:"when,omitempty"`
	Status  int               `json:"status,omitempty" yaml:"status,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    any               `json:"body,omitempty" yaml:"body,omitempty"`

	// ResponseStatus is attached to the payload. A non-empty ErrorCode makes
	// the route report an application error.
	ResponseStatus *service.ResponseStatus `json:"responseStatus,omitempty" yaml:"responseStatus,omitempty"`

	// Error, with a status of 400 or more, is the message of the HTTPError
	// the route fails with.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Schema is a JSON schema the request body must satisfy.
	Schema map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Merge appends the routes of other sets.
func (s *Set) Merge(others ...*Set) {
	for _, o := range others {
		if o != nil {
			s.Routes = append(s.Routes, o.Routes...)
		}
	}
}

// Register compiles the routes of set and adds them to ctrl.
func Register(ctrl *service.Controller, set *Set) error {
	if set == nil {
		return nil
	}

	var (
		groups []*group
		index  = make(map[string]*group)
	)
	for i := range set.Routes {
		cr, err := compile(&set.Routes[i])
		if err != nil {
			return fmt.Errorf("route %d (%s %s): %w", i, set.Routes[i].Method, set.Routes[i].Path, err)
		}
		key := cr.method + " " + cr.Path
		g, ok := index[key]
		if !ok {
			g = &group{method: cr.method, path: cr.Path}
			index[key] = g
			groups = append(groups, g)
		}
		g.routes = append(g.routes, cr)
	}

	for _, g := range groups {
		h := service.HandlerFuncs{Name: g.name(), Build: buildEnv, Handle: g.handle}
		if err := ctrl.AddHandler(g.path, h, g.method); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFixture, err)
		}
	}
	return nil
}

type compiledRoute struct {
	*Route
	method  string
	program *vm.Program
	schema  *jsonschema.Schema
}

type group struct {
	method string
	path   string
	routes []*compiledRoute
}

func (g *group) name() string {
	for _, r := range g.routes {
		if r.Name != "" {
			return r.Name
		}
	}
	return "Fixture " + g.method + " " + g.path
}

// envTemplate fixes the variable types conditions are checked against.
func envTemplate() map[string]any {
	return map[string]any{
		"method":  "",
		"path":    map[string]string{},
		"query":   map[string]string{},
		"headers": map[string]string{},
		"form":    map[string]string{},
		"body":    any(nil),
	}
}

func compile(r *Route) (*compiledRoute, error) {
	if r.Path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidFixture)
	}
	cr := &compiledRoute{Route: r, method: strings.ToUpper(r.Method)}
	if cr.method == "" {
		cr.method = http.MethodGet
	}

	if r.When != "" {
		program, err := expr.Compile(r.When, expr.Env(envTemplate()), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("%w: when: %w", ErrInvalidFixture, err)
		}
		cr.program = program
	}

	if len(r.Schema) > 0 {
		schema, err := compileSchema(r.Schema)
		if err != nil {
			return nil, fmt.Errorf("%w: schema: %w", ErrInvalidFixture, err)
		}
		cr.schema = schema
	}
	return cr, nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("schema.json")
}

func (g *group) handle(_ http.ResponseWriter, _ *http.Request, request any) (any, error) {
	env, _ := request.(map[string]any)
	if env == nil {
		env = envTemplate()
	}

	for _, r := range g.routes {
		if r.program != nil {
			out, err := expr.Run(r.program, env)
			if err != nil {
				return nil, fmt.Errorf("evaluating %q: %w", r.When, err)
			}
			if ok, _ := out.(bool); !ok {
				continue
			}
		}
		if r.schema != nil {
			if he := validateBody(r.schema, env["body"]); he != nil {
				return he, nil
			}
		}
		return r.respond(), nil
	}

	return nil, service.Errorf(http.StatusNotFound, "no fixture for %s %s matched", g.method, g.path)
}

func (r *compiledRoute) respond() any {
	headers := make(http.Header, len(r.Headers))
	for k, v := range r.Headers {
		headers.Set(k, v)
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	if status >= http.StatusBadRequest {
		msg := r.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		he := service.NewError(status, msg)
		he.Headers = headers
		if r.ResponseStatus != nil {
			he.Response = &service.StatusPayload{Body: r.Body, ResponseStatus: r.ResponseStatus}
		} else if r.Body != nil {
			he.Response = r.Body
		}
		return he
	}

	var payload = r.Body
	if r.ResponseStatus != nil {
		payload = &service.StatusPayload{Body: r.Body, ResponseStatus: r.ResponseStatus}
	}
	return &service.HTTPResult{StatusCode: status, Headers: headers, Response: payload}
}

func validateBody(schema *jsonschema.Schema, body any) *service.HTTPError {
	err := schema.Validate(body)
	if err == nil {
		return nil
	}

	st := &service.ResponseStatus{ErrorCode: "ValidationError", Message: "request body does not match schema"}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		collectSchemaErrors(ve, st)
	} else {
		st.Message = err.Error()
	}

	he := service.NewError(http.StatusBadRequest, st.Message)
	he.Response = &service.ErrorResponse{ResponseStatusHolder: service.ResponseStatusHolder{ResponseStatus: st}}
	he.Err = err
	return he
}

func collectSchemaErrors(err *jsonschema.ValidationError, st *service.ResponseStatus) {
	if len(err.Causes) == 0 {
		st.Errors = append(st.Errors, service.ResponseError{
			ErrorCode: "SchemaViolation",
			FieldName: fieldFromPointer(err.InstanceLocation),
			Message:   err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, st)
	}
}

// fieldFromPointer turns a JSON pointer into dot notation.
func fieldFromPointer(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}
