package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	netmail "net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// MessageTestSuite tests share message rendering and encoding
type MessageTestSuite struct {
	suite.Suite
}

func (s *MessageTestSuite) shareMessage() *Message {
	msg, err := NewShareMessage("a@x.com", "b@x.com", ShareData{
		EmailFrom:    "a@x.com",
		DownloadLink: "https://example.com/files/0f8fad5b-d9cb-469f-a165-70867728950e?source=email",
		Size:         "0 KB",
	})
	s.Require().NoError(err)
	return msg
}

// TestNewShareMessage tests the fixed fields and the rendered template
func (s *MessageTestSuite) TestNewShareMessage() {
	msg := s.shareMessage()

	s.Equal("a@x.com", msg.From)
	s.Equal("b@x.com", msg.To)
	s.Equal("imuShares file sharing services", msg.Subject)
	s.Equal("a@x.com shared a file with you.", msg.Text)
	s.Contains(msg.HTML, "a@x.com")
	s.Contains(msg.HTML, "https://example.com/files/0f8fad5b-d9cb-469f-a165-70867728950e?source=email")
	s.Contains(msg.HTML, "0 KB")
	s.Contains(msg.HTML, "24 hours")
}

// TestNewShareMessageEscapesHTML tests that sender input cannot inject markup
func (s *MessageTestSuite) TestNewShareMessageEscapesHTML() {
	msg, err := NewShareMessage("a@x.com", "b@x.com", ShareData{
		EmailFrom:    "<script>alert(1)</script>",
		DownloadLink: "https://example.com/files/x?source=email",
		Size:         "1 KB",
	})
	s.Require().NoError(err)
	s.NotContains(msg.HTML, "<script>")
	s.Contains(msg.HTML, "&lt;script&gt;")
}

// TestValidate tests address validation
func (s *MessageTestSuite) TestValidate() {
	s.NoError(s.shareMessage().Validate())

	err := (&Message{From: "not-an-address", To: "b@x.com"}).Validate()
	s.True(errors.Is(err, ErrInvalidAddress))

	err = (&Message{From: "a@x.com", To: "b@x.com\r\nBcc: c@x.com"}).Validate()
	s.True(errors.Is(err, ErrInvalidAddress))
}

// TestBytes tests that the encoded message parses back into both bodies
func (s *MessageTestSuite) TestBytes() {
	msg := s.shareMessage()
	raw, err := msg.Bytes()
	s.Require().NoError(err)

	parsed, err := netmail.ReadMessage(bytes.NewReader(raw))
	s.Require().NoError(err)
	s.Equal("imuShares file sharing services", parsed.Header.Get("Subject"))
	s.Equal("<a@x.com>", parsed.Header.Get("From"))
	s.Equal("<b@x.com>", parsed.Header.Get("To"))
	s.Equal("1.0", parsed.Header.Get("MIME-Version"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	s.Require().NoError(err)
	s.Equal("multipart/alternative", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])
	bodies := map[string]string{}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		s.Require().NoError(err)

		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		s.Require().NoError(err)
		content, err := io.ReadAll(part)
		s.Require().NoError(err)
		bodies[partType] = string(content)
	}

	s.Equal("a@x.com shared a file with you.", bodies["text/plain"])
	html := strings.ReplaceAll(bodies["text/html"], "\r\n", "\n")
	s.Contains(html, `href="https://example.com/files/0f8fad5b-d9cb-469f-a165-70867728950e?source=email"`)
	s.Contains(html, "<strong>a@x.com</strong> shared a file with you.")
}

// TestBytesInvalidAddress tests that encoding refuses bad addresses
func (s *MessageTestSuite) TestBytesInvalidAddress() {
	_, err := (&Message{From: "a@x.com", To: ""}).Bytes()
	s.True(errors.Is(err, ErrInvalidAddress))
}

// TestLogMailer tests the disabled-delivery mailer
func (s *MessageTestSuite) TestLogMailer() {
	mailer := NewLogMailer()
	s.NoError(mailer.Send(context.Background(), s.shareMessage()))
	s.Error(mailer.Send(context.Background(), &Message{From: "bad", To: "b@x.com"}))
}

// TestMessageSuite runs the message test suite
func TestMessageSuite(t *testing.T) {
	suite.Run(t, new(MessageTestSuite))
}
