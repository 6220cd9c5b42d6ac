package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
)

const (
	OrderCreated = "order.created"
	OrderMocked  = "order.mocked"
	CartCleared  = "cart.cleared"
	UserLoggedIn = "user.logged_in"
)

// Event is the envelope written to the storefront topic.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	ProfileID  string          `json:"profile_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

func New(eventType, profileID string, payload interface{}) (Event, error) {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ProfileID:  profileID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = raw
	}
	return ev, nil
}

type Publisher interface {
	Publish(ev Event)
}

// Nop discards events; used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(Event) {}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes events asynchronously through a buffered inbox. A full
// inbox drops the event rather than stall the request path.
type Producer struct {
	w         messageWriter
	inbox     chan kafka.Message
	closeCh   chan struct{}
	closeOnce sync.Once
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start drains the inbox until Close is called or ctx ends, then flushes
// what is left and closes the writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(m)
				}
				p.closeWriter()
				return
			case m, ok := <-p.inbox:
				if !ok {
					p.closeWriter()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		logger.Error("Failed to publish event", "key", string(m.Key), "error", err)
	}
}

func (p *Producer) closeWriter() {
	if err := p.w.Close(); err != nil {
		logger.Warn("Failed to close kafka writer", "error", err)
	}
}

func (p *Producer) Publish(ev Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to encode event", "type", ev.Type, "error", err)
		return
	}

	msg := kafka.Message{
		Key:     []byte(ev.ProfileID),
		Value:   value,
		Time:    ev.OccurredAt,
		Headers: []kafka.Header{{Key: "type", Value: []byte(ev.Type)}},
	}

	defer func() {
		// Publishing after Close is a no-op.
		if recover() != nil {
			logger.Warn("Event dropped after shutdown", "type", ev.Type)
		}
	}()
	select {
	case p.inbox <- msg:
	default:
		logger.Warn("Event inbox full, dropping event", "type", ev.Type)
	}
}

// Close stops accepting events; Start flushes the remainder.
func (p *Producer) Close() {
	p.closeOnce.Do(func() { close(p.inbox) })
}

// WaitClosed blocks until the drain goroutine has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }

// Emit builds and publishes an event, logging encode failures.
func Emit(pub Publisher, eventType, profileID string, payload interface{}) {
	if pub == nil {
		return
	}
	ev, err := New(eventType, profileID, payload)
	if err != nil {
		logger.Error("Failed to build event", "type", eventType, "error", err)
		return
	}
	pub.Publish(ev)
}
