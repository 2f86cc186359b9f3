package figma

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IsJSON reports whether the upstream told us the body is JSON.
func IsJSON(resp *Response) bool {
	return strings.HasPrefix(resp.Headers.Get("Content-Type"), "application/json")
}

// Decode returns the response body as a decoded JSON value when the
// content-type says JSON, otherwise as plain text. A JSON content-type
// with an unparseable body is an error.
func Decode(resp *Response) (any, error) {
	if IsJSON(resp) {
		var v any
		if err := json.Unmarshal(resp.Body, &v); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		return v, nil
	}
	return string(resp.Body), nil
}

// HeaderMap flattens the response headers to single values, first value
// wins. Proxy envelopes carry headers in this shape.
func HeaderMap(resp *Response) map[string]string {
	m := make(map[string]string, len(resp.Headers))
	for k, vs := range resp.Headers {
		if len(vs) > 0 {
			m[k] = vs[0]
		}
	}
	return m
}
