package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	netmail "net/mail"
)

const (
	// ShareSubject is the subject line of every share email.
	ShareSubject = "imuShares file sharing services"

	// ShareExpiry is the expiry shown in share emails. Nothing enforces it.
	ShareExpiry = "24 hours"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	shareTemplate = template.Must(template.ParseFS(templateFS, "templates/share.html"))

	// ErrInvalidAddress is returned for sender or recipient addresses that cannot be parsed.
	ErrInvalidAddress = errors.New("invalid email address")
)

// Message is one outgoing email with a plain-text and an HTML body.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// ShareData fills the share email template.
type ShareData struct {
	EmailFrom    string
	DownloadLink string
	Size         string
	Expires      string
}

// NewShareMessage builds the email telling to that from shared a file.
func NewShareMessage(from, to string, data ShareData) (*Message, error) {
	if data.Expires == "" {
		data.Expires = ShareExpiry
	}

	var html bytes.Buffer
	if err := shareTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render share email: %w", err)
	}

	return &Message{
		From:    from,
		To:      to,
		Subject: ShareSubject,
		Text:    fmt.Sprintf("%s shared a file with you.", from),
		HTML:    html.String(),
	}, nil
}

// Validate checks that both addresses parse.
func (m *Message) Validate() error {
	if _, err := netmail.ParseAddress(m.From); err != nil {
		return fmt.Errorf("%w: sender %q", ErrInvalidAddress, m.From)
	}
	if _, err := netmail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: recipient %q", ErrInvalidAddress, m.To)
	}
	return nil
}
