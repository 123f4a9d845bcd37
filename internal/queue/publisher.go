// Package queue publishes committed reservation events to RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/model"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// confirmation is the broker's answer to one publish.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type publishFunc func(ctx context.Context, key string, msg amqp.Publishing) (confirmation, error)

// Publisher sends reservation events to a durable topic exchange with
// routing key reservation.<type>. Publishes wait for the broker to confirm
// that message; every publish gets its own confirmation.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	publish  publishFunc
	exchange string
	logger   *zap.Logger
}

// Dial connects to url and declares the exchange.
func Dial(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	logger.Info("Connected to RabbitMQ", zap.String("exchange", exchange))

	return &Publisher{
		conn: conn,
		ch:   ch,
		publish: func(ctx context.Context, key string, msg amqp.Publishing) (confirmation, error) {
			return ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
		},
		exchange: exchange,
		logger:   logger,
	}, nil
}

// RoutingKey is the topic an event is published under.
func RoutingKey(t model.EventType) string {
	return "reservation." + string(t)
}

func newPublishing(event model.ReservationEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}

	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ReservationID.String() + ":" + string(event.Type) + ":" + fmt.Sprint(ts.UnixNano()),
		Timestamp:    ts.UTC(),
		Type:         string(event.Type),
		Headers: amqp.Table{
			"restaurant_id": event.RestaurantID.String(),
		},
		Body: body,
	}, nil
}

// Emit publishes event and waits for the broker's confirmation.
func (p *Publisher) Emit(ctx context.Context, event model.ReservationEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	key := RoutingKey(event.Type)
	confirm, err := p.publish(ctx, key, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for %s confirmation: %w", key, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected %s", key)
	}

	p.logger.Debug("Reservation event published",
		zap.String("routing_key", key),
		zap.String("reservation_id", event.ReservationID.String()),
	)
	return nil
}

func (p *Publisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
