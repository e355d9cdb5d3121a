package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"charter/internal/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer sends through the configured relay with go-mail.
type SMTPMailer struct {
	cfg    config.MailConfig
	client *gomail.Client
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	c, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("init smtp client: %w", err)
	}
	return &SMTPMailer{cfg: cfg, client: c}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	gm := gomail.NewMsg()
	if err := gm.FromFormat(m.cfg.FromName, m.cfg.FromAddress); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := gm.To(msg.To...); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	if len(msg.BCC) > 0 {
		if err := gm.Bcc(msg.BCC...); err != nil {
			return fmt.Errorf("bcc address: %w", err)
		}
	}
	if msg.ReplyTo != "" {
		if err := gm.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("reply-to address: %w", err)
		}
	}
	gm.Subject(msg.Subject)
	gm.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		gm.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		if err := gm.AttachReader(a.Filename, bytes.NewReader(a.Data),
			gomail.WithFileContentType(gomail.ContentType(ct))); err != nil {
			return fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return m.client.DialAndSendWithContext(ctx, gm)
}
