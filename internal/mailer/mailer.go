// Package mailer sends reservation confirmation e-mails over SMTP.
package mailer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"

	"github.com/hotelreserva/hotel-booking/internal/config"
	"github.com/hotelreserva/hotel-booking/internal/metrics"
)

// ErrDisabled is returned by Send when no SMTP host is configured.
var ErrDisabled = errors.New("mailer: smtp not configured")

// Message is a plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Dialer is the part of *gomail.Dialer the mailer uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends messages through a circuit breaker so a dead SMTP server
// does not stall the event consumer on every delivery.
type Mailer struct {
	from   string
	dialer Dialer
	cb     *gobreaker.CircuitBreaker
	log    *logrus.Entry
}

// New returns a Mailer for cfg.  With an empty host every Send returns
// ErrDisabled.
func New(cfg config.SMTPConfig, log *logrus.Logger) *Mailer {
	var d Dialer
	if cfg.Host != "" {
		d = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return NewWithDialer(cfg.From, d, log)
}

// NewWithDialer is New with an explicit transport.
func NewWithDialer(from string, d Dialer, log *logrus.Logger) *Mailer {
	entry := log.WithField("component", "mailer")
	return &Mailer{
		from:   from,
		dialer: d,
		cb:     circuitBreaker("smtp", entry),
		log:    entry,
	}
}

// Send delivers msg.  gobreaker.ErrOpenState is returned while the breaker
// is open.
func (m *Mailer) Send(msg Message) error {
	if m.dialer == nil {
		metrics.EmailsSent.WithLabelValues("disabled").Inc()
		return ErrDisabled
	}
	_, err := m.cb.Execute(func() (interface{}, error) {
		gm := gomail.NewMessage()
		gm.SetHeader("From", m.from)
		gm.SetHeader("To", msg.To)
		gm.SetHeader("Subject", msg.Subject)
		gm.SetBody("text/plain", msg.Body)
		return nil, m.dialer.DialAndSend(gm)
	})
	switch {
	case err == nil:
		metrics.EmailsSent.WithLabelValues("sent").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EmailsSent.WithLabelValues("short_circuit").Inc()
	default:
		metrics.EmailsSent.WithLabelValues("failed").Inc()
		err = fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return err
}

func circuitBreaker(name string, log *logrus.Entry) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
	})
}
