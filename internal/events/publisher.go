package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expense-ledger/internal/models"

	"github.com/rabbitmq/amqp091-go"
)

// ErrPublisherClosed is returned when publishing after Close
var ErrPublisherClosed = errors.New("publisher is closed")

// amqpChannel is the subset of *amqp091.Channel the publisher needs
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher publishes ledger events to a RabbitMQ topic exchange
type AMQPPublisher struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      amqpChannel
	exchangeName string
	routingKey   string
	closed       bool
}

// NewAMQPPublisher dials the broker and declares the exchange
func NewAMQPPublisher(url, exchangeName, routingKey string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	publisher := newPublisher(channel, exchangeName, routingKey)
	publisher.conn = conn
	return publisher, nil
}

func newPublisher(channel amqpChannel, exchangeName, routingKey string) *AMQPPublisher {
	return &AMQPPublisher{
		channel:      channel,
		exchangeName: exchangeName,
		routingKey:   routingKey,
	}
}

// PublishExpenseCreated publishes an expense.created event
func (p *AMQPPublisher) PublishExpenseCreated(ctx context.Context, expense *models.Expense) error {
	body, err := NewExpenseCreatedEvent(expense).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		p.routingKey,   // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			MessageId:    fmt.Sprintf("expense-%d", expense.ID),
			Type:         p.routingKey,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.DebugContext(ctx, "Published expense event",
		"expense_id", expense.ID,
		"exchange", p.exchangeName,
		"routing_key", p.routingKey)

	return nil
}

// Close releases the channel and connection. It is safe to call more than once.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
