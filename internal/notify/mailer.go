// Package notify delivers transactional email.
package notify

import (
	"context"
	"errors"
	"net/mail"

	"go.uber.org/zap"
)

// ErrNoRecipient is returned for messages without a recipient address.
var ErrNoRecipient = errors.New("message has no recipient")

// Message is a plain-text email.
type Message struct {
	To      mail.Address
	Subject string
	Body    string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a mailer for development setups.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs msg.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To.Address == "" {
		return ErrNoRecipient
	}
	m.logger.Info("email",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}
