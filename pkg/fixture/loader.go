package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Errors returned by the loaders.
var (
	ErrNoFiles   = errors.New("no fixture files matched")
	ErrEmptyFile = errors.New("fixture file is empty")
)

// Parse decodes a YAML or JSON fixture document.
func Parse(data []byte) (*Set, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyFile
	}
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	for i := range set.Routes {
		set.Routes[i].Body = normalizeYAML(set.Routes[i].Body)
		if set.Routes[i].Schema != nil {
			set.Routes[i].Schema, _ = normalizeYAML(set.Routes[i].Schema).(map[string]any)
		}
	}
	return &set, nil
}

// LoadFile reads one fixture file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadGlob reads every file matching pattern, in lexical order, into one
// set. Patterns may use ** to match directories recursively.
func LoadGlob(pattern string) (*Set, error) {
	matches, err := expandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	sort.Strings(matches)

	set := &Set{}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		fileSet, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		set.Merge(fileSet)
	}
	return set, nil
}

func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// normalizeYAML converts the map[any]any values older YAML documents can
// produce into the map[string]any shape JSON tooling expects.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeYAML(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalizeYAML(e)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
