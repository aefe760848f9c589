package services

import "context"

// Mailer delivers a single plain-text message. Failures are returned, never retried.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
