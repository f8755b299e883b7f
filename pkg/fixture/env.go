package fixture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/nuxleus/directhost/pkg/service"
)

// buildEnv turns a routed request into the variables conditions see. The
// body is left on r for filters.
func buildEnv(r *http.Request) (any, error) {
	env := envTemplate()
	env["method"] = r.Method
	env["path"] = service.PathParams(r)
	env["query"] = firstValues(r.URL.Query())

	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	env["headers"] = headers

	if r.Body == nil || r.Body == http.NoBody {
		return env, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, service.Errorf(http.StatusBadRequest, "failed to read body: %v", err)
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if len(data) == 0 {
		return env, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == service.MIMEForm {
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, service.Errorf(http.StatusBadRequest, "form: %v", err)
		}
		env["form"] = firstValues(values)
		return env, nil
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		he := service.NewError(http.StatusBadRequest, fmt.Sprintf("body: %v", err))
		he.Err = err
		return nil, he
	}
	env["body"] = body
	return env, nil
}

func firstValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
