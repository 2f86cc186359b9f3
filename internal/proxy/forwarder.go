// Package proxy validates inbound request descriptors, forwards them to
// the upstream Figma API and records completed calls in the history
// store.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/figplay/bridge/internal/feed"
	"github.com/figplay/bridge/internal/figma"
	"github.com/figplay/bridge/internal/logging"
	"github.com/figplay/bridge/internal/store"
)

// Error texts double as the API detail strings, so they are written the
// way the handlers surface them.
var (
	ErrUnsupportedMethod = errors.New("Unsupported HTTP method")
	ErrBadPageEndpoint   = errors.New("Endpoint must be in format /files/:file_key")
	ErrNoPages           = errors.New("No pages found in document")
)

// PageMethod marks history entries produced by the page-extraction
// flow instead of a plain proxy call.
const PageMethod = "PAGE"

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
}

// Forwarder executes proxy descriptors against the upstream API. When
// history is nil (persistence disabled) completed calls are not
// recorded.
type Forwarder struct {
	client  figma.Client
	history store.HistoryStore
	feed    *feed.Feed
	baseURL string
	logger  logging.Logger
}

func New(client figma.Client, history store.HistoryStore, fd *feed.Feed, baseURL string, logger logging.Logger) *Forwarder {
	return &Forwarder{
		client:  client,
		history: history,
		feed:    fd,
		baseURL: baseURL,
		logger:  logger.With(logging.Field{Key: "component", Value: "proxy"}),
	}
}

// Proxy forwards one descriptor upstream and returns the normalized
// outcome. The method must be one of GET, POST, PUT or DELETE in any
// case; anything else fails before any upstream traffic. A completed
// call is recorded in history whatever its upstream status, a failed
// one never is.
func (f *Forwarder) Proxy(ctx context.Context, d Descriptor) (*Envelope, error) {
	method := strings.ToUpper(d.Method)
	if _, ok := allowedMethods[method]; !ok {
		return nil, ErrUnsupportedMethod
	}

	req := &figma.Request{
		Method:  method,
		URL:     f.baseURL + d.Endpoint,
		Headers: d.Headers,
	}
	// GET and DELETE never carry a body upstream, even if one was given.
	if (method == http.MethodPost || method == http.MethodPut) && d.HasBody() {
		req.Body = d.Body
	}

	f.logger.Debug("forwarding request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "endpoint", Value: d.Endpoint},
	)

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Request failed: %w", err)
	}

	env, err := f.envelope(resp)
	if err != nil {
		return nil, err
	}

	// The method is recorded as the caller sent it, not normalized.
	if err := f.record(ctx, store.HistoryEntry{
		Method:       d.Method,
		Endpoint:     d.Endpoint,
		Headers:      store.Headers(d.Headers),
		Body:         bodyText(d),
		ResponseData: store.JSONValue{V: historyData(resp)},
		StatusCode:   resp.StatusCode,
	}); err != nil {
		return nil, err
	}

	return env, nil
}

// Page fetches a file document and extracts its first page. The
// descriptor's method is ignored; the upstream call is always a GET.
// Only a successful extraction is recorded in history, under the
// literal method "PAGE".
func (f *Forwarder) Page(ctx context.Context, d Descriptor) (*Envelope, error) {
	if !strings.HasPrefix(d.Endpoint, "/files/") {
		return nil, ErrBadPageEndpoint
	}

	req := &figma.Request{
		Method:  http.MethodGet,
		URL:     f.baseURL + d.Endpoint,
		Headers: d.Headers,
	}

	f.logger.Debug("fetching document for page extraction",
		logging.Field{Key: "endpoint", Value: d.Endpoint},
	)

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Request failed: %w", err)
	}

	// Upstream rejections pass through as plain proxy envelopes, with
	// no extraction and no history entry.
	if resp.StatusCode != http.StatusOK {
		return f.envelope(resp)
	}

	var doc any
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	page, ok := figma.FirstPage(doc)
	if !ok {
		return nil, ErrNoPages
	}

	if err := f.record(ctx, store.HistoryEntry{
		Method:       PageMethod,
		Endpoint:     d.Endpoint,
		Headers:      store.Headers(d.Headers),
		ResponseData: store.JSONValue{V: page},
		StatusCode:   http.StatusOK,
	}); err != nil {
		return nil, err
	}

	return &Envelope{
		StatusCode: http.StatusOK,
		Data:       page,
		Headers:    figma.HeaderMap(resp),
	}, nil
}

func (f *Forwarder) envelope(resp *figma.Response) (*Envelope, error) {
	data, err := figma.Decode(resp)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		StatusCode: resp.StatusCode,
		Data:       data,
		Headers:    figma.HeaderMap(resp),
	}, nil
}

func (f *Forwarder) record(ctx context.Context, e store.HistoryEntry) error {
	if f.history == nil {
		return nil
	}
	if err := f.history.AddHistoryEntry(ctx, &e); err != nil {
		return fmt.Errorf("recording history: %w", err)
	}
	f.feed.Publish(e)
	return nil
}

// historyData picks what the history entry stores as the response. Only
// an exact 200 gets its JSON decoded; other statuses keep the raw text
// even when it is JSON-shaped. A 200 body that fails to decode falls
// back to text as well.
func historyData(resp *figma.Response) any {
	if resp.StatusCode == http.StatusOK {
		var v any
		if err := json.Unmarshal(resp.Body, &v); err == nil {
			return v
		}
	}
	return string(resp.Body)
}

func bodyText(d Descriptor) *string {
	if !d.HasBody() {
		return nil
	}
	s := string(d.Body)
	return &s
}
