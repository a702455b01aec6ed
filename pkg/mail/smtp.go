package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"imushare/pkg/log"
)

const defaultTimeout = 30 * time.Second

// SMTPConfig holds the settings of the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// EnvelopeFrom is used for MAIL FROM; the message From is used when empty.
	EnvelopeFrom string
	Timeout      time.Duration
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &SMTPMailer{config: cfg}
}

// Send delivers msg. STARTTLS is used when offered, and PLAIN auth when a user is configured.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	dialer := &net.Dialer{Timeout: m.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("Failed to connect to SMTP server")
		return err
	}

	deadline := time.Now().Add(m.config.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return err
	}

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Debug().Err(err).Msg("SMTP connection already closed")
		}
	}()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: m.config.Host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.config.User != "" {
		auth := smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	envelopeFrom := m.config.EnvelopeFrom
	if envelopeFrom == "" {
		envelopeFrom = msg.From
	}

	if err := client.Mail(envelopeFrom); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return err
	}

	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	if err := client.Quit(); err != nil {
		log.Warn().Err(err).Msg("SMTP quit failed after delivery")
	}

	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}
