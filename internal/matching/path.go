package matching

import (
	"errors"
	"fmt"
	"strings"
)

// Match score constants for path matching.
// Higher scores indicate more specific matches.
const (
	// ScorePathExact is the score for a pattern without variables or wildcards.
	ScorePathExact = 15

	// ScorePathNamedParams is the score for a pattern with {name} variables.
	ScorePathNamedParams = 12

	// ScorePathWildcard is the score for a pattern ending in /*.
	ScorePathWildcard = 10
)

// WildcardKey is the variable name holding the remainder matched by a trailing *.
const WildcardKey = "*"

// ErrInvalidPattern is returned by Compile for malformed patterns.
var ErrInvalidPattern = errors.New("invalid path pattern")

type segmentKind int

const (
	literal segmentKind = iota
	variable
	wildcard
)

type segment struct {
	kind  segmentKind
	value string
}

// Pattern is a compiled route path pattern.
type Pattern struct {
	raw      string
	segments []segment
	score    int
}

// Compile parses a route pattern such as "/items/{id}" or "/files/*".
func Compile(pattern string) (*Pattern, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, pattern)
	}

	p := &Pattern{raw: pattern, score: ScorePathExact}
	parts := splitPath(pattern)
	seen := make(map[string]bool)

	for i, part := range parts {
		switch {
		case part == "*":
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %q wildcard must be the last segment", ErrInvalidPattern, pattern)
			}
			p.segments = append(p.segments, segment{kind: wildcard})
			p.score = ScorePathWildcard
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			name := part[1 : len(part)-1]
			if name == "" || strings.ContainsAny(name, "{}") {
				return nil, fmt.Errorf("%w: %q has an empty or nested variable", ErrInvalidPattern, pattern)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: %q repeats variable %q", ErrInvalidPattern, pattern, name)
			}
			seen[name] = true
			p.segments = append(p.segments, segment{kind: variable, value: name})
			if p.score > ScorePathNamedParams {
				p.score = ScorePathNamedParams
			}
		case strings.ContainsAny(part, "{}"):
			return nil, fmt.Errorf("%w: %q has unbalanced braces", ErrInvalidPattern, pattern)
		default:
			p.segments = append(p.segments, segment{kind: literal, value: part})
		}
	}

	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern as written.
func (p *Pattern) String() string { return p.raw }

// Variables returns the variable names in declaration order.
func (p *Pattern) Variables() []string {
	var names []string
	for _, s := range p.segments {
		if s.kind == variable {
			names = append(names, s.value)
		}
	}
	return names
}

// Match reports whether path matches the pattern. It returns a score > 0 and
// the captured variables on success, or 0 and nil otherwise.
func (p *Pattern) Match(path string) (int, map[string]string) {
	parts := splitPath(path)
	vars := make(map[string]string)

	for i, seg := range p.segments {
		if seg.kind == wildcard {
			vars[WildcardKey] = strings.Join(parts[i:], "/")
			return p.score, vars
		}
		if i >= len(parts) {
			return 0, nil
		}
		switch seg.kind {
		case literal:
			if !strings.EqualFold(seg.value, parts[i]) {
				return 0, nil
			}
		case variable:
			vars[seg.value] = parts[i]
		}
	}

	if len(parts) != len(p.segments) {
		return 0, nil
	}
	return p.score, vars
}

// MatchPath compiles pattern and matches it against path in one step.
// Invalid patterns never match.
func MatchPath(pattern, path string) int {
	p, err := Compile(pattern)
	if err != nil {
		return 0
	}
	score, _ := p.Match(path)
	return score
}

// splitPath trims surrounding slashes and splits the path into segments.
// The root path yields no segments.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
