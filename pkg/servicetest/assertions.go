package servicetest

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/ohler55/ojg/jp"

	"github.com/nuxleus/directhost/pkg/service"
)

// JSONPath evaluates a JSONPath expression against the JSON form of v and
// returns every match.
func JSONPath(v any, path string) ([]any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, err
	}
	doc, err := normalizeJSON(v)
	if err != nil {
		return nil, err
	}
	return expr.Get(doc), nil
}

// AssertJSONPath asserts that path selects at least one value in the JSON
// form of v equal to expected. Both sides are compared after a JSON round
// trip, so numbers compare as float64 and structs as maps.
func AssertJSONPath(t testing.TB, v any, path string, expected any) {
	t.Helper()

	results, err := JSONPath(v, path)
	if err != nil {
		t.Errorf("JSONPath %q: %v", path, err)
		return
	}
	if len(results) == 0 {
		t.Errorf("JSONPath %q matched nothing", path)
		return
	}

	want, err := normalizeJSON(expected)
	if err != nil {
		t.Errorf("failed to encode expected value: %v", err)
		return
	}
	for _, r := range results {
		if reflect.DeepEqual(r, want) {
			return
		}
	}
	t.Errorf("JSONPath %q mismatch\nexpected: %v (%T)\nactual: %v", path, want, want, results)
}

// AssertResponseStatus asserts that err is a ServiceError or ApplicationError
// whose response carries errorCode.
func AssertResponseStatus(t testing.TB, err error, errorCode string) {
	t.Helper()

	var se *ServiceError
	if !errors.As(err, &se) {
		t.Errorf("expected a service error with code %q, got %v", errorCode, err)
		return
	}
	if se.ErrorCode != errorCode {
		t.Errorf("error code mismatch\nexpected: %q\nactual: %q", errorCode, se.ErrorCode)
	}
}

// AssertStatusCode asserts that err is a ServiceError with the given status.
func AssertStatusCode(t testing.TB, err error, status int) {
	t.Helper()

	var se *ServiceError
	if !errors.As(err, &se) {
		t.Errorf("expected a service error with status %d, got %v", status, err)
		return
	}
	if se.StatusCode != status {
		t.Errorf("status mismatch\nexpected: %d\nactual: %d", status, se.StatusCode)
	}
}

// ResponseStatusOf returns the response status of a payload or service
// error, or nil.
func ResponseStatusOf(v any) *service.ResponseStatus {
	var se *ServiceError
	if err, ok := v.(error); ok && errors.As(err, &se) {
		return se.ResponseStatus()
	}
	return service.StatusOf(v)
}

func normalizeJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
