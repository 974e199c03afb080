package email

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/kafka"
)

// Sender delivers booking confirmation mail. Delivery is a stand-in: the
// message is logged, which is enough for the demo deployments this service
// targets.
type Sender struct {
	log *logrus.Logger
}

func NewSender(log *logrus.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fields := logrus.Fields{
		"to":                event.Email,
		"booking_reference": event.Reference,
		"total_amount":      event.TotalAmount,
	}
	if event.Demo {
		fields["demo"] = true
	}
	if event.Fallback {
		fields["fallback"] = true
	}
	s.log.WithFields(fields).Info("sending booking confirmation email")
	return nil
}
