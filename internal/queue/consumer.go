package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/hotelreserva/hotel-booking/internal/mailer"
)

// Notifier delivers confirmation e-mails.  *mailer.Mailer satisfies it.
type Notifier interface {
	Send(msg mailer.Message) error
}

// Consumer reads reservation.created events, appends one JSON line per
// reservation to the reservation journal and e-mails the client.
type Consumer struct {
	url     string
	log     *logrus.Entry
	journal *logrus.Logger
	mail    Notifier
}

// NewConsumer returns a consumer for the broker at url.  Journal lines are
// written to journal, usually a lumberjack rotated file.
func NewConsumer(url string, log *logrus.Logger, journal io.Writer, mail Notifier) *Consumer {
	j := logrus.New()
	j.SetOutput(journal)
	j.SetFormatter(&logrus.JSONFormatter{})
	return &Consumer{
		url:     url,
		log:     log.WithField("component", "reservation-consumer"),
		journal: j,
		mail:    mail,
	}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-dialled with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("dial broker failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("set QoS failed")
	}
	if _, err := ch.QueueDeclare(ReservationCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ReservationCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.log.Info("consuming reservation events")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.WithError(err).WithField("message_id", d.MessageId).Error("handle message failed")
				// reject without requeue so a poison message cannot loop
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one event body.  Only malformed payloads are errors; a
// failed e-mail is logged and the event still counts as handled.
func (c *Consumer) Handle(body []byte) error {
	var ev ReservationCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ReservationID == 0 {
		return errors.New("event has no reservation_id")
	}

	c.journal.WithFields(logrus.Fields{
		"reservation_id": ev.ReservationID,
		"client_id":      ev.ClientID,
		"room_id":        ev.RoomID,
		"room":           ev.RoomName,
		"guests":         ev.Guests,
		"start_date":     ev.StartDate.String(),
		"end_date":       ev.EndDate.String(),
		"nights":         ev.Nights,
		"total_price":    ev.TotalPrice.String(),
		"created_at":     ev.CreatedAt,
	}).Info("reservation created")

	if ev.ClientEmail == "" || c.mail == nil {
		return nil
	}
	err := c.mail.Send(confirmation(ev))
	switch {
	case err == nil:
	case errors.Is(err, mailer.ErrDisabled):
		c.log.WithField("reservation_id", ev.ReservationID).Debug("smtp disabled; confirmation not sent")
	default:
		c.log.WithError(err).WithField("reservation_id", ev.ReservationID).Warn("confirmation e-mail failed")
	}
	return nil
}

func confirmation(ev ReservationCreatedEvent) mailer.Message {
	return mailer.Message{
		To:      ev.ClientEmail,
		Subject: fmt.Sprintf("Reservation #%d confirmed", ev.ReservationID),
		Body: fmt.Sprintf("Hello %s,\n\nyour reservation of %s is confirmed.\n\n"+
			"Check-in:  %s\nCheck-out: %s\nNights:    %d\nGuests:    %d\nTotal:     %s\n",
			ev.ClientName, ev.RoomName, ev.StartDate, ev.EndDate, ev.Nights, ev.Guests, ev.TotalPrice),
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
