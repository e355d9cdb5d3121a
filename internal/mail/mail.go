package mail

import (
	"context"
	"strings"

	"charter/internal/utils"
)

// Attachment is an in-memory file sent with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a rendered email ready for delivery.
type Message struct {
	To          []string
	BCC         []string
	ReplyTo     string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer stands in when no SMTP relay is configured; it only logs.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	utils.LogEvent("", "mail", "send_skipped",
		"to="+strings.Join(msg.To, ",")+" subject="+msg.Subject)
	return nil
}
