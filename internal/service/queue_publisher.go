// Package service holds outbound integrations used by the HTTP handlers.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/metrics"
	"github.com/hotelreserva/hotel-booking/internal/queue"
)

// QueuePublisher publishes reservation events to RabbitMQ.  Each publish
// dials its own connection; reservation volume is low and this keeps the
// publisher free of reconnect state.
type QueuePublisher struct {
	url string
	log *logrus.Entry
}

// NewQueuePublisher returns a publisher for the broker at url.  An empty
// url disables publishing.
func NewQueuePublisher(url string, log *logrus.Logger) *QueuePublisher {
	return &QueuePublisher{url: url, log: log.WithField("component", "queue-publisher")}
}

// PublishReservationCreated sends ev to the reservation.created queue as a
// persistent message.  Errors are logged and returned; callers treat them
// as non-fatal since the reservation is already stored.
func (p *QueuePublisher) PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error {
	if p.url == "" {
		metrics.EventsPublished.WithLabelValues("disabled").Inc()
		return nil
	}
	err := p.publish(ctx, ev)
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		p.log.WithError(err).WithField("reservation_id", ev.ReservationID).Error("publish reservation event failed")
		return err
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
	return nil
}

func (p *QueuePublisher) publish(ctx context.Context, ev queue.ReservationCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queue.ReservationCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx, "", queue.ReservationCreatedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         queue.ReservationCreatedQueue,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
