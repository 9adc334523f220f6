package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultBookingLog is where the consumer records events when no other
// path is configured.
const DefaultBookingLog = "logs/booking.log"

// NewBookingLog returns a zap logger that appends one JSON object per
// line to path, creating the parent directory when needed.
func NewBookingLog(path string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir logs: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Consumer listens to the reservation.events queue and writes each
// event to the booking log.
type Consumer struct {
	url   string
	queue string
	log   *zap.Logger
	sink  *zap.Logger
}

// NewConsumer returns a Consumer for the broker at url.  log receives
// operational messages and sink receives one entry per event.
func NewConsumer(url string, log, sink *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = zap.NewNop()
	}
	return &Consumer{url: url, queue: EventsQueue, log: log, sink: sink}
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Lost connections are re-dialled with
// exponential backoff capped at 30s.  A message that cannot be decoded
// is rejected without requeue so the consumer keeps going.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("booking-consumer: failed to dial broker",
				zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("booking-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("booking-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.Warn("booking-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and records it in the booking log.
func (c *Consumer) Handle(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	fields := []zap.Field{
		zap.String("type", ev.Type),
		zap.Uint64("user_id", ev.UserID),
		zap.String("occurred_at", ev.OccurredAt),
	}
	if ev.ReservationID != 0 {
		fields = append(fields,
			zap.Uint64("reservation_id", ev.ReservationID),
			zap.Uint64("workspace_id", ev.WorkspaceID),
			zap.String("start_time", ev.StartTime),
			zap.String("end_time", ev.EndTime),
			zap.String("total_price", ev.TotalPrice),
			zap.Int("discount_percent", ev.DiscountPercent))
	}
	if ev.CouponCode != "" {
		fields = append(fields, zap.String("coupon_code", ev.CouponCode))
	}
	c.sink.Info("booking event", fields...)
	return nil
}
