package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchange is the fanout exchange order events are published to.
	DefaultExchange = "orders.events"

	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

// calculateBackoff returns the delay before reconnect attempt number
// failures+1: base doubled per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// AMQPConfig configures an AMQP subscription or publisher.
type AMQPConfig struct {
	URL      string
	Exchange string
	Logger   *slog.Logger
}

func (c AMQPConfig) exchange() string {
	if c.Exchange == "" {
		return DefaultExchange
	}
	return c.Exchange
}

func (c AMQPConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// AMQPSource subscribes to the order event exchange through a private,
// server-named queue and reconnects with exponential backoff until closed.
type AMQPSource struct {
	cfg    AMQPConfig
	log    *slog.Logger
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

var _ Source = (*AMQPSource)(nil)

// NewAMQPSource starts subscribing in the background. Connection outcomes
// arrive as Connected, Disconnected and Error events.
func NewAMQPSource(ctx context.Context, cfg AMQPConfig) *AMQPSource {
	ctx, cancel := context.WithCancel(ctx)
	s := &AMQPSource{
		cfg:    cfg,
		log:    cfg.logger().With("component", "push"),
		events: make(chan Event, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Events implements Source. The channel is closed once the source stops.
func (s *AMQPSource) Events() <-chan Event { return s.events }

// Close stops the subscription and waits for the connection to shut down.
func (s *AMQPSource) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

func (s *AMQPSource) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	failures := 0
	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			failures = 0
			s.log.Warn("push subscription lost", "error", err)
			s.emit(ctx, Event{Kind: Disconnected, Err: err})
		} else {
			s.log.Warn("push connect failed", "error", err, "attempt", failures+1)
			s.emit(ctx, Event{Kind: Error, Err: err})
		}

		wait := calculateBackoff(failures, baseBackoff)
		failures++
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session runs one connection until it drops. connected reports whether the
// subscription was established before the error.
func (s *AMQPSource) session(ctx context.Context) (connected bool, err error) {
	conn, err := amqp.Dial(s.cfg.URL)
	if err != nil {
		return false, fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return false, fmt.Errorf("open channel: %w", err)
	}
	deliveries, err := subscribe(ch, s.cfg.exchange())
	if err != nil {
		return false, err
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	s.log.Info("push subscription established", "exchange", s.cfg.exchange())
	s.emit(ctx, Event{Kind: Connected})

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case amqpErr, ok := <-closed:
			if !ok || amqpErr == nil {
				return true, errors.New("connection closed")
			}
			return true, amqpErr
		case d, ok := <-deliveries:
			if !ok {
				return true, errors.New("delivery channel closed")
			}
			ev, known := eventFromDelivery(d)
			if !known {
				s.log.Debug("ignoring push message", "type", d.Type)
				continue
			}
			s.emit(ctx, ev)
		}
	}
}

func subscribe(ch *amqp.Channel, exchange string) (<-chan amqp.Delivery, error) {
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}
	return deliveries, nil
}

func eventFromDelivery(d amqp.Delivery) (Event, bool) {
	return Decode(d.Type, d.Body)
}

func (s *AMQPSource) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// AMQPPublisher publishes order events to the fanout exchange and waits for
// broker confirms.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	acks     <-chan amqp.Confirmation
	mu       sync.Mutex
}

var _ Publisher = (*AMQPPublisher)(nil)

// DialPublisher connects to the broker and declares the exchange.
func DialPublisher(cfg AMQPConfig) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.exchange(), "fanout", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.exchange(), err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return &AMQPPublisher{conn: conn, ch: ch, exchange: cfg.exchange(), acks: acks}, nil
}

// Publish sends body as a message whose Type is the event name.
func (p *AMQPPublisher) Publish(ctx context.Context, name string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Transient,
		ContentType:  "application/json",
		Type:         name,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}

	select {
	case conf, ok := <-p.acks:
		if !ok {
			return fmt.Errorf("publish %s: %w", name, amqp.ErrClosed)
		}
		if !conf.Ack {
			return fmt.Errorf("publish %s: broker nack", name)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
