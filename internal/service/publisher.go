package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/coworking-reservation/internal/queue"
)

// EventPublisher sends booking events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// DefaultPublishTimeout bounds a publish whose context has no deadline.
const DefaultPublishTimeout = 5 * time.Second

// Publisher publishes events to the reservation.events queue on
// RabbitMQ, opening a connection per message.  Errors are logged and
// returned so the caller can choose to ignore them.
type Publisher struct {
	url     string
	queue   string
	timeout time.Duration
	log     *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, queue: queue.EventsQueue, timeout: DefaultPublishTimeout, log: log}
}

// dial connects within ctx's deadline.  The deadline covers the TCP
// connect and the AMQP handshake.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	dl, ok := ctx.Deadline()
	if !ok {
		dl = time.Now().Add(p.timeout)
	}
	d := time.Until(dl)
	if d <= 0 {
		return nil, context.DeadlineExceeded
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(d),
	})
}

// Publish marshals ev and sends it as a persistent message through the
// default exchange, routed by queue name.  It returns once ctx is done
// even when the broker stops answering mid-publish.
func (p *Publisher) Publish(ctx context.Context, ev queue.Event) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := p.dial(ctx)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	// closing the connection unblocks channel and declare calls
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.Error(err), zap.String("type", ev.Type))
		return err
	}
	return nil
}
