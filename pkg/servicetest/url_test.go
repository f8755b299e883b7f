package servicetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		path  string
		query map[string]*string
	}{
		{
			name: "no query",
			in:   "/items/42",
			path: "/items/42",
		},
		{
			name:  "simple query",
			in:    "/items?foo=bar&limit=10",
			path:  "/items",
			query: map[string]*string{"foo": QueryValue("bar"), "limit": QueryValue("10")},
		},
		{
			name:  "split at first question mark",
			in:    "/search?q=a?b",
			path:  "/search",
			query: map[string]*string{"q": QueryValue("a?b")},
		},
		{
			name:  "split at first equals",
			in:    "/x?expr=a=b=c",
			path:  "/x",
			query: map[string]*string{"expr": QueryValue("a=b=c")},
		},
		{
			name:  "key without equals is absent",
			in:    "/x?flag&name=",
			path:  "/x",
			query: map[string]*string{"flag": nil, "name": QueryValue("")},
		},
		{
			name:  "last duplicate wins",
			in:    "/x?a=1&a=2",
			path:  "/x",
			query: map[string]*string{"a": QueryValue("2")},
		},
		{
			name:  "escapes decoded",
			in:    "/files/a%20b?q=hello+world&k%26=v%3D",
			path:  "/files/a b",
			query: map[string]*string{"q": QueryValue("hello world"), "k&": QueryValue("v=")},
		},
		{
			name:  "malformed escape kept raw",
			in:    "/x?q=100%",
			path:  "/x",
			query: map[string]*string{"q": QueryValue("100%")},
		},
		{
			name:  "empty query",
			in:    "/x?",
			path:  "/x",
			query: map[string]*string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseURL(tt.in)
			assert.Equal(t, tt.path, got.PathInfo)
			assert.Equal(t, tt.query, got.Query)
		})
	}
}

func TestURLPartsAccessors(t *testing.T) {
	t.Parallel()

	u := ParseURL("/items?b=2&flag&a=1")

	v, ok := u.Value("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = u.Value("flag")
	assert.False(t, ok)
	assert.True(t, u.Has("flag"))
	assert.False(t, u.Has("missing"))

	assert.Equal(t, "/items?a=1&b=2&flag", u.String())
	assert.Equal(t, "/items", ParseURL("/items").String())
	assert.Equal(t, "", u.Values().Get("flag"))
	assert.Equal(t, "2", u.Values().Get("b"))
}
