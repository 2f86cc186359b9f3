package proxy

import (
	"bytes"
	"encoding/json"
)

// Descriptor is a caller-submitted request to forward to the upstream
// API. Unknown input fields are dropped during decoding.
type Descriptor struct {
	Method   string            `json:"method"`
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
	Body     json.RawMessage   `json:"body,omitempty"`
}

// HasBody reports whether the descriptor carries a JSON body. An
// explicit JSON null counts as no body.
func (d Descriptor) HasBody() bool {
	t := bytes.TrimSpace(d.Body)
	return len(t) > 0 && !bytes.Equal(t, []byte("null"))
}

// Envelope is the normalized upstream outcome returned to callers. Data
// holds the decoded JSON body when the upstream said it sent JSON, the
// raw text otherwise.
type Envelope struct {
	StatusCode int               `json:"status_code"`
	Data       any               `json:"data"`
	Headers    map[string]string `json:"headers"`
}
