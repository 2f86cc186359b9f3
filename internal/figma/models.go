package figma

import (
	"net/http"
	"time"
)

// Request describes one upstream call. Headers are single-valued since
// they arrive from proxy descriptors, not from a real inbound request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the upstream result, body unread from the wire and
// undecoded. Decode and HeaderMap shape it for callers.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}
