// Package feed broadcasts newly recorded history entries to live
// subscribers, decoupling the proxy path from websocket delivery.
package feed

import (
	"sync"

	"github.com/figplay/bridge/internal/store"
)

// subscriberBuffer is each subscriber's channel capacity. A slow reader
// loses entries rather than blocking the proxy path.
const subscriberBuffer = 16

// Feed fans out history entries to any number of subscribers.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]chan store.HistoryEntry
	nextID int
	closed bool
}

func New() *Feed {
	return &Feed{subs: make(map[int]chan store.HistoryEntry)}
}

// Subscribe registers a listener. The returned cancel function
// unregisters it and closes the channel; calling it more than once is
// safe. Subscribing to a closed feed yields an already closed channel.
func (f *Feed) Subscribe() (<-chan store.HistoryEntry, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan store.HistoryEntry, subscriberBuffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers e to every subscriber without blocking.
func (f *Feed) Publish(e store.HistoryEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close closes every subscriber channel and rejects future publishes.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
