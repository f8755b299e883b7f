package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"
	"sync"
)

// MIME types registered by default.
const (
	MIMEJSON = "application/json"
	MIMEForm = "application/x-www-form-urlencoded"
)

// ErrUnsupportedContentType is returned for MIME types with no serializer.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Serializer converts values to and from one wire format.
type Serializer interface {
	Serialize(w io.Writer, v any) error
	Deserialize(r io.Reader, v any) error
}

// ContentTypes is a registry of serializers keyed by MIME type.
// It is safe for concurrent use.
type ContentTypes struct {
	mu          sync.RWMutex
	serializers map[string]Serializer
}

// NewContentTypes returns a registry with JSON and form serializers.
func NewContentTypes() *ContentTypes {
	ct := &ContentTypes{serializers: make(map[string]Serializer)}
	ct.Register(MIMEJSON, jsonSerializer{})
	ct.Register(MIMEForm, formSerializer{})
	return ct
}

// Register adds or replaces the serializer for a MIME type.
func (ct *ContentTypes) Register(contentType string, s Serializer) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.serializers[normalizeMIME(contentType)] = s
}

// Lookup returns the serializer for a Content-Type header value. Parameters
// such as charset are ignored.
func (ct *ContentTypes) Lookup(contentType string) (Serializer, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	s, ok := ct.serializers[normalizeMIME(contentType)]
	return s, ok
}

// ContentTypes returns the registered MIME types.
func (ct *ContentTypes) ContentTypes() []string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	out := make([]string, 0, len(ct.serializers))
	for k := range ct.serializers {
		out = append(out, k)
	}
	return out
}

// Serialize writes v to w using the serializer for contentType.
func (ct *ContentTypes) Serialize(contentType string, w io.Writer, v any) error {
	s, ok := ct.Lookup(contentType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	return s.Serialize(w, v)
}

// Deserialize reads r into v using the serializer for contentType.
func (ct *ContentTypes) Deserialize(contentType string, r io.Reader, v any) error {
	s, ok := ct.Lookup(contentType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	return s.Deserialize(r, v)
}

func normalizeMIME(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func (jsonSerializer) Deserialize(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// formSerializer handles url-encoded forms. Values are bound onto structs by
// JSON field name with weak typing.
type formSerializer struct{}

func (formSerializer) Serialize(w io.Writer, v any) error {
	var values url.Values
	switch t := v.(type) {
	case url.Values:
		values = t
	case map[string]string:
		values = make(url.Values, len(t))
		for k, val := range t {
			values.Set(k, val)
		}
	default:
		m, err := toStringMap(v)
		if err != nil {
			return err
		}
		values = make(url.Values, len(m))
		for k, val := range m {
			values.Set(k, val)
		}
	}
	_, err := io.WriteString(w, values.Encode())
	return err
}

func (formSerializer) Deserialize(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read form body: %w", err)
	}
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse form body: %w", err)
	}
	return Bind(v, ValuesToMap(values))
}
