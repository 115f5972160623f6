package live

import (
	"testing"
	"time"
)

func TestFeedDeliversToSubscribers(t *testing.T) {
	feed := NewFeed()

	events, cancel := feed.Subscribe()
	defer cancel()

	feed.Publish("hello")

	select {
	case got := <-events:
		if got != "hello" {
			t.Fatalf("expected hello, got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestFeedFansOut(t *testing.T) {
	feed := NewFeed()

	first, cancelFirst := feed.Subscribe()
	defer cancelFirst()
	second, cancelSecond := feed.Subscribe()
	defer cancelSecond()

	feed.Publish(42)

	for _, events := range []<-chan any{first, second} {
		select {
		case got := <-events:
			if got != 42 {
				t.Fatalf("expected 42, got %v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber missed the event")
		}
	}
}

func TestFeedCancelRemovesSubscriber(t *testing.T) {
	feed := NewFeed()

	_, cancel := feed.Subscribe()
	if got := feed.SubscriberCount(); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	cancel()
	if got := feed.SubscriberCount(); got != 0 {
		t.Fatalf("expected 0 subscribers after cancel, got %d", got)
	}

	// Publishing to an empty feed must not panic or block.
	feed.Publish("ignored")
}

func TestFeedDropsForSlowConsumers(t *testing.T) {
	feed := NewFeed()

	events, cancel := feed.Subscribe()
	defer cancel()

	// Overfill the buffer without draining; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feed.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow consumer")
	}

	// The buffered prefix is still readable.
	select {
	case got := <-events:
		if got != 0 {
			t.Fatalf("expected first event 0, got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("buffered event missing")
	}
}
