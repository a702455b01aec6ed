package mail

import (
	"context"

	"imushare/pkg/log"
)

// LogMailer only logs messages. It is used when mail delivery is disabled.
type LogMailer struct{}

// NewLogMailer creates a LogMailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs msg and reports success.
func (m *LogMailer) Send(_ context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	log.Info().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Email delivery disabled, message not sent")
	return nil
}
