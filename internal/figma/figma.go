// Package figma is the outbound HTTP adapter for the Figma REST API.
// It issues one upstream call per invocation and hands back the raw
// status, headers and body plus small helpers to decode them.
package figma

import (
	"context"
)

// DefaultBaseURL is the production Figma API base. Endpoint paths from
// proxy descriptors are appended to it verbatim.
const DefaultBaseURL = "https://api.figma.com/v1"

// Client executes a single upstream request.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}
