package fixture

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuxleus/directhost/pkg/service"
	"github.com/nuxleus/directhost/pkg/servicetest"
)

func newFixture(t *testing.T, pattern string) *servicetest.Fixture {
	t.Helper()

	set, err := LoadGlob(pattern)
	require.NoError(t, err)

	f := servicetest.New(t)
	require.NoError(t, Register(f.Controller(), set))
	return f
}

func TestParse(t *testing.T) {
	t.Parallel()

	set, err := Parse([]byte(`
routes:
  - method: get
    path: /ping
    body: {pong: 1, tags: [a, b]}
`))
	require.NoError(t, err)
	require.Len(t, set.Routes, 1)
	assert.Equal(t, "/ping", set.Routes[0].Path)
	assert.Equal(t, map[string]any{"pong": float64(1), "tags": []any{"a", "b"}}, set.Routes[0].Body)

	_, err = Parse([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Parse([]byte("routes: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidFixture)
}

func TestLoadGlob(t *testing.T) {
	t.Parallel()

	t.Run("recursive", func(t *testing.T) {
		t.Parallel()
		set, err := LoadGlob("testdata/**/*.y*ml")
		require.NoError(t, err)
		paths := make([]string, 0, len(set.Routes))
		for _, r := range set.Routes {
			paths = append(paths, r.Path)
		}
		assert.ElementsMatch(t, []string{"/items/{id}", "/items/{id}", "/items", "/admin/cache", "/admin/cache"}, paths)
	})

	t.Run("simple", func(t *testing.T) {
		t.Parallel()
		set, err := LoadGlob("testdata/*.json")
		require.NoError(t, err)
		require.Len(t, set.Routes, 1)
		assert.Equal(t, "/legacy", set.Routes[0].Path)
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		_, err := LoadGlob("testdata/*.toml")
		assert.ErrorIs(t, err, ErrNoFiles)
	})
}

func TestRegisterRejectsInvalidRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		route Route
	}{
		{name: "missing path", route: Route{Method: "GET"}},
		{name: "bad condition", route: Route{Path: "/x", When: "path.id =="}},
		{name: "non-boolean condition", route: Route{Path: "/x", When: `"yes"`}},
		{name: "bad schema", route: Route{Path: "/x", Schema: map[string]any{"type": 12}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := servicetest.New(t)
			err := Register(f.Controller(), &Set{Routes: []Route{tt.route}})
			assert.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}

func TestConditionsPickFirstMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "testdata/**/*.y*ml")
	ctx := context.Background()

	res, err := f.ExecutePath(ctx, "GET", "/items/42")
	require.NoError(t, err)
	servicetest.AssertJSONPath(t, res, "$.name", "widget")
	f.AssertExecuted(t, "GetWidget")

	_, err = f.ExecutePath(ctx, "GET", "/items/7")
	var se *servicetest.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "item not found", se.Message)
	assert.Equal(t, "NotFound", se.ErrorCode)

	f.AssertCalledTimes(t, "GET", "/items/{id}", 2)
}

func TestHeaderCondition(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "testdata/nested/*.yml")
	ctx := context.Background()

	res, err := f.Execute(ctx, servicetest.PathRequest{
		Method:   "DELETE",
		PathInfo: "/admin/cache",
		Headers:  map[string]string{"X-Role": "admin"},
	})
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = f.ExecutePath(ctx, "DELETE", "/admin/cache")
	servicetest.AssertStatusCode(t, err, http.StatusForbidden)
	servicetest.AssertResponseStatus(t, err, "Forbidden")
}

func TestSchemaValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "testdata/items.yaml")
	ctx := context.Background()

	res, err := f.ExecutePathBody(ctx, "POST", "/items", map[string]any{"name": "gear", "qty": 3})
	require.NoError(t, err)
	servicetest.AssertJSONPath(t, res, "$.created", true)

	_, err = f.ExecutePathBody(ctx, "POST", "/items", map[string]any{"qty": 0})
	var se *servicetest.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)

	st := se.ResponseStatus()
	require.NotNil(t, st)
	assert.Equal(t, "ValidationError", st.ErrorCode)
	require.GreaterOrEqual(t, len(st.Errors), 2)

	var fields []string
	for _, e := range st.Errors {
		assert.Equal(t, "SchemaViolation", e.ErrorCode)
		assert.NotEmpty(t, e.Message)
		fields = append(fields, e.FieldName)
	}
	assert.Contains(t, fields, "qty")
}

func TestSchemaRejectsMissingBody(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "testdata/items.yaml")

	_, err := f.ExecutePath(context.Background(), "POST", "/items")
	servicetest.AssertStatusCode(t, err, http.StatusBadRequest)
	servicetest.AssertResponseStatus(t, err, "ValidationError")
}

func TestConditionOverBodyQueryAndForm(t *testing.T) {
	t.Parallel()
	f := servicetest.New(t)
	err := Register(f.Controller(), &Set{Routes: []Route{
		{Method: "POST", Path: "/orders", When: `body != nil && body.priority == "high"`, Body: "expedited"},
		{Method: "POST", Path: "/orders", When: `form.priority == "low"`, Body: "deferred"},
		{Method: "POST", Path: "/orders", When: `query.dry == "true"`, Body: "dry run"},
		{Method: "POST", Path: "/orders", Body: "queued"},
	}})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := f.ExecutePathBody(ctx, "POST", "/orders", map[string]string{"priority": "high"})
	require.NoError(t, err)
	assert.Equal(t, "expedited", res)

	res, err = f.Execute(ctx, servicetest.PathRequest{Method: "POST", PathInfo: "/orders", Form: map[string]string{"priority": "low"}})
	require.NoError(t, err)
	assert.Equal(t, "deferred", res)

	res, err = f.ExecutePath(ctx, "POST", "/orders?dry=true")
	require.NoError(t, err)
	assert.Equal(t, "dry run", res)

	res, err = f.ExecutePath(ctx, "POST", "/orders")
	require.NoError(t, err)
	assert.Equal(t, "queued", res)

	routes := f.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "Fixture POST /orders", routes[0].Operation)
}

func TestNoConditionMatches(t *testing.T) {
	t.Parallel()
	f := servicetest.New(t)
	require.NoError(t, Register(f.Controller(), &Set{Routes: []Route{
		{Path: "/feature", When: `query.flag == "on"`, Body: "enabled"},
	}}))

	_, err := f.ExecutePath(context.Background(), "GET", "/feature")
	servicetest.AssertStatusCode(t, err, http.StatusNotFound)
}

func TestApplicationErrorPayload(t *testing.T) {
	t.Parallel()
	f := servicetest.New(t)
	require.NoError(t, Register(f.Controller(), &Set{Routes: []Route{{
		Path:           "/quota",
		Body:           map[string]any{"remaining": 0},
		ResponseStatus: &service.ResponseStatus{ErrorCode: "QuotaExceeded", Message: "try later"},
	}}}))

	_, err := f.ExecutePath(context.Background(), "GET", "/quota")
	var ae *servicetest.ApplicationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "QuotaExceeded", ae.ErrorCode)
	assert.Equal(t, "try later", ae.Message)

	payload, ok := ae.Response.(*service.StatusPayload)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"remaining": 0}, payload.Body)
}

func TestResponseHeaders(t *testing.T) {
	t.Parallel()

	route := &compiledRoute{Route: &Route{Status: 202, Headers: map[string]string{"x-fixture": "yes"}, Body: "ok"}}
	res, ok := route.respond().(*service.HTTPResult)
	require.True(t, ok)
	assert.Equal(t, http.StatusAccepted, res.Status())
	assert.Equal(t, "yes", res.Headers.Get("X-Fixture"))
	assert.Equal(t, "ok", res.Payload())
}

func TestFieldFromPointer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", fieldFromPointer(""))
	assert.Equal(t, "qty", fieldFromPointer("/qty"))
	assert.Equal(t, "lines.0.sku", fieldFromPointer("/lines/0/sku"))
}
