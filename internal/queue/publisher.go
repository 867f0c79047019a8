package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names. The publisher declares them durable before every publish so
// ordering of process startup does not matter.
const (
	BookingCreatedQueue = "booking.created"
	TicketRedeemedQueue = "ticket.redeemed"
)

// Publisher publishes domain events to RabbitMQ. It dials a fresh
// connection per publish, which keeps it robust against broker restarts at
// the cost of throughput; publishing happens after the database commit and
// is best effort, so callers log and ignore any returned error.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher for the given AMQP URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishBookingCreated publishes a BookingCreatedEvent to the
// booking.created queue. Messages are marked persistent.
func (p *Publisher) PublishBookingCreated(ctx context.Context, event BookingCreatedEvent) error {
	return p.publish(ctx, BookingCreatedQueue, event)
}

// PublishTicketRedeemed publishes a TicketRedeemedEvent to the
// ticket.redeemed queue.
func (p *Publisher) PublishTicketRedeemed(ctx context.Context, event TicketRedeemedEvent) error {
	return p.publish(ctx, TicketRedeemedQueue, event)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event interface{}) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
