// Package live provides in-process fan-out of telemetry events to
// connected UI clients over Server-Sent Events.
package live

import "sync"

const subscriberBuffer = 16

// Feed broadcasts events to all current subscribers. Publishing never
// blocks: a subscriber that cannot keep up misses events rather than
// stalling ingestion.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan any
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan any)}
}

// Subscribe registers a listener. The returned cancel func must be
// called when the client disconnects.
func (f *Feed) Subscribe() (<-chan any, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan any, subscriberBuffer)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

func (f *Feed) Publish(event any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- event:
		default:
			// slow consumer, drop
		}
	}
}

func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
