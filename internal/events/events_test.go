package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 16)
	p.Start(context.Background())

	Emit(p, OrderCreated, "profile-1", map[string]int{"product_id": 42})
	Emit(p, CartCleared, "profile-1", nil)
	p.Close()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) != 2 || !w.closed {
		t.Fatalf("Expected 2 flushed messages and a closed writer, got %d closed=%v", len(w.msgs), w.closed)
	}

	var ev Event
	if err := json.Unmarshal(w.msgs[0].Value, &ev); err != nil {
		t.Fatal("Failed to decode event:", err)
	}
	if ev.Type != OrderCreated || ev.ProfileID != "profile-1" || string(ev.Payload) != `{"product_id":42}` {
		t.Errorf("Unexpected event %+v", ev)
	}
	if string(w.msgs[0].Key) != "profile-1" {
		t.Errorf("Expected events keyed by profile, got %q", w.msgs[0].Key)
	}
}

func TestProducerDrainsOnContextCancel(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 16)
	ctx, cancel := context.WithCancel(context.Background())

	Emit(p, UserLoggedIn, "p", nil)
	p.Start(ctx)
	cancel()
	p.WaitClosed()

	// Publishing after shutdown must not panic.
	Emit(p, UserLoggedIn, "p", nil)

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) != 1 {
		t.Errorf("Expected the queued event to be flushed, got %d", len(w.msgs))
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1)
	Emit(p, CartCleared, "p", nil)
	Emit(p, CartCleared, "p", nil)
	if len(p.inbox) != 1 {
		t.Errorf("Expected a full inbox to drop, got %d queued", len(p.inbox))
	}
}
