package proxy_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/figplay/bridge/internal/feed"
	"github.com/figplay/bridge/internal/proxy"
	"github.com/figplay/bridge/internal/store"
	"github.com/figplay/bridge/internal/testutil"
)

const testBase = "https://figma.test/v1"

func openRepo(t *testing.T) *store.Repository {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "bridge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	repo := store.NewRepository(db, &testutil.DummyLogger{})
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newForwarder(t *testing.T, client *testutil.DummyClient) (*proxy.Forwarder, *store.Repository, *feed.Feed) {
	t.Helper()
	repo := openRepo(t)
	fd := feed.New()
	t.Cleanup(fd.Close)
	return proxy.New(client, repo, fd, testBase, &testutil.DummyLogger{}), repo, fd
}

func historyEntries(t *testing.T, repo *store.Repository) []store.HistoryEntry {
	t.Helper()
	entries, err := repo.ListHistory(context.Background())
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	return entries
}

func TestProxy_ForwardsAndRecords(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{Body: []byte(`{"name":"Design File"}`)}
	fwd, repo, fd := newForwarder(t, client)
	live, cancel := fd.Subscribe()
	defer cancel()

	env, err := fwd.Proxy(context.Background(), proxy.Descriptor{
		Method:   "get",
		Endpoint: "/files/abc",
		Headers:  map[string]string{"X-Figma-Token": "tok"},
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}

	if env.StatusCode != 200 {
		t.Fatalf("expected status 200, got %d", env.StatusCode)
	}
	if !reflect.DeepEqual(env.Data, map[string]any{"name": "Design File"}) {
		t.Fatalf("unexpected data: %#v", env.Data)
	}
	if env.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected headers: %#v", env.Headers)
	}

	req := client.LastRequest()
	if req.Method != "GET" {
		t.Fatalf("expected normalized GET upstream, got %q", req.Method)
	}
	if req.URL != testBase+"/files/abc" {
		t.Fatalf("unexpected upstream url %q", req.URL)
	}
	if req.Headers["X-Figma-Token"] != "tok" {
		t.Fatalf("token header not forwarded: %#v", req.Headers)
	}

	entries := historyEntries(t, repo)
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Method != "get" {
		t.Fatalf("history method must keep the caller's casing, got %q", e.Method)
	}
	if e.Endpoint != "/files/abc" || e.StatusCode != 200 || e.Body != nil {
		t.Fatalf("unexpected history entry: %+v", e)
	}
	if !reflect.DeepEqual(e.ResponseData.V, map[string]any{"name": "Design File"}) {
		t.Fatalf("unexpected recorded response: %#v", e.ResponseData.V)
	}

	select {
	case got := <-live:
		if got.Endpoint != "/files/abc" {
			t.Fatalf("live feed got %q", got.Endpoint)
		}
	case <-time.After(time.Second):
		t.Fatal("history entry never reached the feed")
	}
}

func TestProxy_UnsupportedMethod(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{}
	fwd, repo, _ := newForwarder(t, client)

	for _, method := range []string{"PATCH", "HEAD", "OPTIONS", "INVALID", ""} {
		if _, err := fwd.Proxy(context.Background(), proxy.Descriptor{Method: method, Endpoint: "/me"}); !errors.Is(err, proxy.ErrUnsupportedMethod) {
			t.Fatalf("method %q: expected ErrUnsupportedMethod, got %v", method, err)
		}
	}

	if len(client.Requests) != 0 {
		t.Fatalf("expected no upstream calls, saw %d", len(client.Requests))
	}
	if entries := historyEntries(t, repo); len(entries) != 0 {
		t.Fatalf("expected no history entries, got %d", len(entries))
	}
}

func TestProxy_CaseInsensitiveMethods(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{}
	fwd, _, _ := newForwarder(t, client)

	for _, method := range []string{"get", "Post", "pUt", "DELETE"} {
		if _, err := fwd.Proxy(context.Background(), proxy.Descriptor{Method: method, Endpoint: "/me"}); err != nil {
			t.Fatalf("method %q: %v", method, err)
		}
	}
}

func TestProxy_UpstreamRejectionRecordedAsText(t *testing.T) {
	t.Parallel()
	body := `{"status":403,"err":"Invalid token"}`
	client := &testutil.DummyClient{StatusCode: 403, Body: []byte(body)}
	fwd, repo, _ := newForwarder(t, client)

	env, err := fwd.Proxy(context.Background(), proxy.Descriptor{Method: "GET", Endpoint: "/me"})
	if err != nil {
		t.Fatalf("a reachable upstream is not an error, got %v", err)
	}
	if env.StatusCode != 403 {
		t.Fatalf("expected upstream status passed through, got %d", env.StatusCode)
	}
	// The envelope decodes JSON regardless of status.
	if !reflect.DeepEqual(env.Data, map[string]any{"status": float64(403), "err": "Invalid token"}) {
		t.Fatalf("unexpected data: %#v", env.Data)
	}

	// The history entry keeps non-200 bodies as raw text even when
	// they are JSON-shaped.
	entries := historyEntries(t, repo)
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].ResponseData.V != body {
		t.Fatalf("expected raw text response data, got %#v", entries[0].ResponseData.V)
	}
	if entries[0].StatusCode != 403 {
		t.Fatalf("unexpected recorded status: %d", entries[0].StatusCode)
	}
}

func TestProxy_NetworkFailure(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{FailURLs: map[string]bool{testBase + "/me": true}}
	fwd, repo, _ := newForwarder(t, client)

	_, err := fwd.Proxy(context.Background(), proxy.Descriptor{Method: "GET", Endpoint: "/me"})
	if err == nil || !strings.HasPrefix(err.Error(), "Request failed: ") {
		t.Fatalf("expected a request failure, got %v", err)
	}

	if entries := historyEntries(t, repo); len(entries) != 0 {
		t.Fatalf("failed calls must not be recorded, got %d entries", len(entries))
	}
}

func TestProxy_BodyHandling(t *testing.T) {
	t.Parallel()

	t.Run("PostSendsBody", func(t *testing.T) {
		t.Parallel()
		client := &testutil.DummyClient{}
		fwd, repo, _ := newForwarder(t, client)

		body := json.RawMessage(`{"message":"hello"}`)
		if _, err := fwd.Proxy(context.Background(), proxy.Descriptor{
			Method:   "POST",
			Endpoint: "/files/abc/comments",
			Body:     body,
		}); err != nil {
			t.Fatalf("proxy: %v", err)
		}

		if got := string(client.LastRequest().Body); got != string(body) {
			t.Fatalf("expected body sent upstream, got %q", got)
		}
		entries := historyEntries(t, repo)
		if entries[0].Body == nil || *entries[0].Body != string(body) {
			t.Fatalf("expected body recorded, got %v", entries[0].Body)
		}
	})

	t.Run("GetDropsBodyUpstreamButRecordsIt", func(t *testing.T) {
		t.Parallel()
		client := &testutil.DummyClient{}
		fwd, repo, _ := newForwarder(t, client)

		if _, err := fwd.Proxy(context.Background(), proxy.Descriptor{
			Method:   "GET",
			Endpoint: "/me",
			Body:     json.RawMessage(`{"ignored":true}`),
		}); err != nil {
			t.Fatalf("proxy: %v", err)
		}

		if len(client.LastRequest().Body) != 0 {
			t.Fatal("GET must not send a body upstream")
		}
		entries := historyEntries(t, repo)
		if entries[0].Body == nil || *entries[0].Body != `{"ignored":true}` {
			t.Fatalf("expected original body recorded, got %v", entries[0].Body)
		}
	})

	t.Run("NullBodyCountsAsNone", func(t *testing.T) {
		t.Parallel()
		client := &testutil.DummyClient{}
		fwd, repo, _ := newForwarder(t, client)

		if _, err := fwd.Proxy(context.Background(), proxy.Descriptor{
			Method:   "POST",
			Endpoint: "/files/abc/comments",
			Body:     json.RawMessage(`null`),
		}); err != nil {
			t.Fatalf("proxy: %v", err)
		}

		if len(client.LastRequest().Body) != 0 {
			t.Fatal("a JSON null body must not be sent upstream")
		}
		if entries := historyEntries(t, repo); entries[0].Body != nil {
			t.Fatalf("expected null recorded body, got %q", *entries[0].Body)
		}
	})
}

func TestProxy_TextResponse(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{
		Headers: http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:    []byte("rate limited"),
	}
	fwd, repo, _ := newForwarder(t, client)

	env, err := fwd.Proxy(context.Background(), proxy.Descriptor{Method: "GET", Endpoint: "/me"})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if env.Data != "rate limited" {
		t.Fatalf("expected raw text data, got %#v", env.Data)
	}
	if entries := historyEntries(t, repo); entries[0].ResponseData.V != "rate limited" {
		t.Fatalf("expected raw text recorded, got %#v", entries[0].ResponseData.V)
	}
}

func TestProxy_WithoutPersistence(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{Body: []byte(`{"ok":true}`)}
	fd := feed.New()
	t.Cleanup(fd.Close)
	fwd := proxy.New(client, nil, fd, testBase, &testutil.DummyLogger{})

	env, err := fwd.Proxy(context.Background(), proxy.Descriptor{Method: "GET", Endpoint: "/me"})
	if err != nil {
		t.Fatalf("proxy without a store: %v", err)
	}
	if env.StatusCode != 200 {
		t.Fatalf("unexpected status %d", env.StatusCode)
	}
}

func TestPage_ExtractsFirstPage(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{
		Body: []byte(`{"document":{"children":[{"id":"0:1","name":"Page 1"},{"id":"0:2","name":"Page 2"}]}}`),
	}
	fwd, repo, _ := newForwarder(t, client)

	env, err := fwd.Page(context.Background(), proxy.Descriptor{
		Method:   "GET",
		Endpoint: "/files/ABC123",
		Headers:  map[string]string{"X-Figma-Token": "x"},
	})
	if err != nil {
		t.Fatalf("page: %v", err)
	}

	want := map[string]any{"id": "0:1", "name": "Page 1"}
	if env.StatusCode != 200 || !reflect.DeepEqual(env.Data, want) {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	entries := historyEntries(t, repo)
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Method != "PAGE" {
		t.Fatalf("expected method PAGE, got %q", e.Method)
	}
	if e.Body != nil || e.StatusCode != 200 {
		t.Fatalf("unexpected history entry: %+v", e)
	}
	if !reflect.DeepEqual(e.ResponseData.V, want) {
		t.Fatalf("expected the extracted page recorded, got %#v", e.ResponseData.V)
	}
}

func TestPage_NoPages(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{Body: []byte(`{"document":{"children":[]}}`)}
	fwd, repo, _ := newForwarder(t, client)

	_, err := fwd.Page(context.Background(), proxy.Descriptor{Method: "GET", Endpoint: "/files/ABC123"})
	if !errors.Is(err, proxy.ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
	if entries := historyEntries(t, repo); len(entries) != 0 {
		t.Fatalf("expected no history entries, got %d", len(entries))
	}
}

func TestPage_BadEndpoint(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{}
	fwd, repo, _ := newForwarder(t, client)

	for _, endpoint := range []string{"/teams/1/projects", "/me", "files/abc", ""} {
		if _, err := fwd.Page(context.Background(), proxy.Descriptor{Method: "GET", Endpoint: endpoint}); !errors.Is(err, proxy.ErrBadPageEndpoint) {
			t.Fatalf("endpoint %q: expected ErrBadPageEndpoint, got %v", endpoint, err)
		}
	}

	if len(client.Requests) != 0 {
		t.Fatalf("expected no upstream calls, saw %d", len(client.Requests))
	}
	if entries := historyEntries(t, repo); len(entries) != 0 {
		t.Fatalf("expected no history entries, got %d", len(entries))
	}
}

func TestPage_Non200PassesThrough(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{StatusCode: 404, Body: []byte(`{"status":404,"err":"Not found"}`)}
	fwd, repo, _ := newForwarder(t, client)

	env, err := fwd.Page(context.Background(), proxy.Descriptor{Method: "GET", Endpoint: "/files/missing"})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if env.StatusCode != 404 {
		t.Fatalf("expected upstream status passed through, got %d", env.StatusCode)
	}
	if entries := historyEntries(t, repo); len(entries) != 0 {
		t.Fatalf("the passthrough path must not be recorded, got %d entries", len(entries))
	}
}

func TestPage_MethodIgnored(t *testing.T) {
	t.Parallel()
	client := &testutil.DummyClient{Body: []byte(`{"document":{"children":[{"id":"0:1"}]}}`)}
	fwd, _, _ := newForwarder(t, client)

	if _, err := fwd.Page(context.Background(), proxy.Descriptor{Method: "POST", Endpoint: "/files/abc"}); err != nil {
		t.Fatalf("page: %v", err)
	}
	if got := client.LastRequest().Method; got != "GET" {
		t.Fatalf("page flow must always GET, sent %q", got)
	}
}
