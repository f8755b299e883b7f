package servicetest

import (
	"net/url"
	"sort"
	"strings"
)

// URLParts is a path split from its query string.
//
// Query maps each key to its value; a nil value means the key appeared
// without "=". Query is nil when the URL had no "?".
type URLParts struct {
	PathInfo string
	Query    map[string]*string
}

// ParseURL splits pathInfo at the first "?". The query is split on "&" and
// each segment at its first "=". Later duplicates overwrite earlier ones.
func ParseURL(pathInfo string) URLParts {
	path, rawQuery, hasQuery := strings.Cut(pathInfo, "?")
	parts := URLParts{PathInfo: unescapePath(path)}
	if !hasQuery {
		return parts
	}

	parts.Query = make(map[string]*string)
	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}
		key, value, hasValue := strings.Cut(segment, "=")
		key = unescapeQuery(key)
		if !hasValue {
			parts.Query[key] = nil
			continue
		}
		v := unescapeQuery(value)
		parts.Query[key] = &v
	}
	return parts
}

// String reassembles the URL with an escaped, key-sorted query.
func (u URLParts) String() string {
	q := encodeQuery(u.Query)
	if u.Query == nil {
		return u.PathInfo
	}
	return u.PathInfo + "?" + q
}

// Values converts the query to url.Values. Absent values become "".
func (u URLParts) Values() url.Values {
	out := make(url.Values, len(u.Query))
	for k, v := range u.Query {
		if v == nil {
			out.Set(k, "")
			continue
		}
		out.Set(k, *v)
	}
	return out
}

// Value returns a query value and whether the key was present with "=".
func (u URLParts) Value(key string) (string, bool) {
	v, ok := u.Query[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Has reports whether key appeared in the query, with or without a value.
func (u URLParts) Has(key string) bool {
	_, ok := u.Query[key]
	return ok
}

// QueryValue is a helper for building PathRequest.Query literals.
func QueryValue(s string) *string { return &s }

// encodeQuery renders a query map. Keys without a value are written bare.
func encodeQuery(query map[string]*string) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		if v := query[k]; v != nil {
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(*v))
		}
	}
	return b.String()
}

func unescapePath(s string) string {
	if out, err := url.PathUnescape(s); err == nil {
		return out
	}
	return s
}

func unescapeQuery(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	return s
}
