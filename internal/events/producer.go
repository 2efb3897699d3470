package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Publisher is the narrow interface the pipeline depends on. A nil-safe
// no-op implementation is used when eventing is disabled.
type Publisher interface {
	// Publish queues env for async delivery. It never blocks on the broker;
	// a full queue drops the event and logs.
	Publish(env *Envelope)
}

// Noop is a Publisher that discards every event. Used when no brokers are
// configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(*Envelope) {}

var _ Publisher = Noop{}

const defaultQueueSize = 256

// Producer publishes envelopes to a Kafka topic through an async writer.
// Messages are queued on an inbox channel and written by a single goroutine;
// write errors are logged, never surfaced to the request path.
type Producer struct {
	w       *kafka.Writer
	log     *slog.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}
}

var _ Publisher = (*Producer)(nil)

// NewProducer builds a Producer for the given brokers and topic. Call Start
// before Publish and Close on shutdown.
func NewProducer(brokers []string, topic string, log *slog.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("events: brokers must not be empty")
	}
	if topic == "" {
		return nil, errors.New("events: topic must not be empty")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		log:     log.With("component", "events"),
		inbox:   make(chan kafka.Message, defaultQueueSize),
		closeCh: make(chan struct{}),
	}, nil
}

// Start launches the delivery goroutine. It runs until ctx is cancelled or
// Close is called, then flushes the remaining queue and closes the writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
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

// Publish implements Publisher. The envelope is serialized and queued; when
// the queue is full the event is dropped with a log line rather than
// blocking the order response.
func (p *Producer) Publish(env *Envelope) {
	if env == nil {
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.log.Error("marshal event", "event_type", env.EventType, "error", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
	}
	select {
	case p.inbox <- msg:
	default:
		p.log.Warn("event queue full, dropping event",
			"event_type", env.EventType, "event_id", env.EventID)
	}
}

// Close stops accepting events; the delivery goroutine flushes the queue and
// exits. Use WaitClosed to block until the flush completes.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the delivery goroutine has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error("write event", "error", err)
	}
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				p.closeWriter()
				return
			}
			p.write(m)
		default:
			p.closeWriter()
			return
		}
	}
}

func (p *Producer) closeWriter() {
	if err := p.w.Close(); err != nil {
		p.log.Error("close kafka writer", "error", err)
	}
}
