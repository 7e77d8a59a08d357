// Package email composes and delivers transactional mail: purchase receipts,
// wallet top-up notices and roadmap gift codes.
package email

import (
	"context"
	"log/slog"
)

// Email represents an email message to be sent.
type Email struct {
	To       []string
	From     string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

// Sender delivers a composed message.
// Implementations: SMTPSender (go-mail) and NoopSender.
type Sender interface {
	// Send returns the provider's message id when one is available.
	Send(ctx context.Context, email *Email) (string, error)
}

// NoopSender logs messages instead of delivering them. Used when SMTP is not
// configured.
type NoopSender struct {
	logger *slog.Logger
}

func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(_ context.Context, email *Email) (string, error) {
	s.logger.Debug("email: delivery disabled, dropping message",
		"to", email.To,
		"subject", email.Subject,
	)
	return "", nil
}
