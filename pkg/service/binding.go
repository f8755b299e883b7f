package service

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/go-viper/mapstructure/v2"
)

// Bind copies values onto target (a pointer to a struct or map), matching keys
// against JSON field names case-insensitively. String values are converted
// to the field type ("42" into an int field, "true" into a bool field).
// Fields without a matching key are left untouched.
func Bind(target any, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           target,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("failed to create binder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return fmt.Errorf("failed to bind request: %w", err)
	}
	return nil
}

// ValuesToMap flattens url.Values: keys with one value map to a string, keys
// with several map to a []string.
func ValuesToMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
			out[k] = ""
		case 1:
			out[k] = vs[0]
		default:
			out[k] = append([]string(nil), vs...)
		}
	}
	return out
}

// StringsToMap converts a string map for use with Bind.
func StringsToMap(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// toStringMap renders a struct or map as flat string pairs using its JSON form.
func toStringMap(v any) (map[string]string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form values: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("form values must be an object: %w", err)
	}
	out := make(map[string]string, len(generic))
	for k, val := range generic {
		if val == nil {
			continue
		}
		switch t := val.(type) {
		case string:
			out[k] = t
		case map[string]any, []any:
			nested, _ := json.Marshal(t)
			out[k] = string(nested)
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out, nil
}
