package feed_test

import (
	"testing"
	"time"

	"github.com/figplay/bridge/internal/feed"
	"github.com/figplay/bridge/internal/store"
)

func entry(endpoint string) store.HistoryEntry {
	return store.HistoryEntry{Method: "GET", Endpoint: endpoint, StatusCode: 200}
}

func recv(t *testing.T, ch <-chan store.HistoryEntry) store.HistoryEntry {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for entry")
		return store.HistoryEntry{}
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	t.Parallel()
	f := feed.New()
	defer f.Close()

	a, cancelA := f.Subscribe()
	defer cancelA()
	b, cancelB := f.Subscribe()
	defer cancelB()

	f.Publish(entry("/files/abc"))

	if got := recv(t, a); got.Endpoint != "/files/abc" {
		t.Fatalf("subscriber a got %q", got.Endpoint)
	}
	if got := recv(t, b); got.Endpoint != "/files/abc" {
		t.Fatalf("subscriber b got %q", got.Endpoint)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	t.Parallel()
	f := feed.New()
	defer f.Close()

	a, cancelA := f.Subscribe()
	b, cancelB := f.Subscribe()
	defer cancelB()

	cancelA()
	cancelA() // second cancel is a no-op

	f.Publish(entry("/me"))

	if _, open := <-a; open {
		t.Fatal("expected a's channel to be closed")
	}
	if got := recv(t, b); got.Endpoint != "/me" {
		t.Fatalf("subscriber b got %q", got.Endpoint)
	}
}

func TestSlowSubscriberDropsEntries(t *testing.T) {
	t.Parallel()
	f := feed.New()
	defer f.Close()

	ch, cancel := f.Subscribe()
	defer cancel()

	// Overfill the buffer; the surplus must be dropped, not block.
	for i := 0; i < 50; i++ {
		f.Publish(entry("/files/abc"))
	}

	if len(ch) >= 50 {
		t.Fatalf("expected drops, buffered %d", len(ch))
	}
	recv(t, ch)
}

func TestCloseEndsSubscribers(t *testing.T) {
	t.Parallel()
	f := feed.New()

	ch, cancel := f.Subscribe()
	f.Close()
	f.Close() // idempotent

	if _, open := <-ch; open {
		t.Fatal("expected channel closed after feed close")
	}

	// Publishing and cancelling after close must not panic.
	f.Publish(entry("/me"))
	cancel()

	late, lateCancel := f.Subscribe()
	defer lateCancel()
	if _, open := <-late; open {
		t.Fatal("expected closed channel from post-close subscribe")
	}
}
