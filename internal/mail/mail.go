// Package mail holds the outbound message shape and a development mailer.
package mail

import (
	"context"
	"time"

	"miniblog/internal/logger"

	"go.uber.org/zap"
)

// Message is one outbound email, as queued for the relay.
type Message struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	From string
}

func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger.Info("mail (not delivered)",
		zap.String("from", m.From),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
