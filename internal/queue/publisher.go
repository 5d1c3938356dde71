// Package queue publishes domain events to a RabbitMQ topic exchange.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"toolshare-backend/internal/logger"
)

const DefaultExchange = "toolshare.events"

// Publisher keeps one connection and channel open and reopens them after the
// broker drops them. Messages are persistent JSON.
type Publisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, exchange string) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{url: url, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, event any) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	logger.ExternalServiceCall(ctx, "RabbitMQ", "publish", "exchange", p.exchange, "routingKey", routingKey, "messageID", msg.MessageId)
	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	logger.ExternalServiceResult(ctx, "RabbitMQ", "publish", err, "routingKey", routingKey)
	if err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish %s: %w", routingKey, err)
	}
	return nil
}

// channel returns the open channel, dialing and declaring the exchange first
// when needed. Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		p.reset()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		p.reset()
		return nil, fmt.Errorf("rabbitmq: exchange declare failed: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func newPublishing(event any) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, routingKey string, _ any) error {
	logger.DebugContext(ctx, "Event publishing disabled, dropping event", "routingKey", routingKey)
	return nil
}
