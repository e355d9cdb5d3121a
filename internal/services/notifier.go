package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"charter/internal/mail"
	"charter/internal/observability"
	"charter/internal/utils"
)

const defaultNotifyTimeout = 15 * time.Second

// Notice is one business event to announce by email.
type Notice struct {
	Event         string
	CustomerEmail string
	Customer      mail.Content
	// Admin defaults to Customer when left empty.
	Admin       *mail.Content
	AdminOnly   bool
	Attachments []mail.Attachment
}

// Notifier sends the customer and admin copies of a notice. Delivery is best
// effort: errors are logged and counted, never returned to the caller.
type Notifier struct {
	Mailer       mail.Mailer
	AdminAddress string
	BCC          []string
	Timeout      time.Duration
	RequestID    string
	// Pending, when set, makes Dispatch return at once and deliver in the
	// background. Shutdown waits on it.
	Pending *sync.WaitGroup
}

// Dispatch runs detached from ctx cancellation so a client hanging up does
// not abort a half-sent pair of emails.
func (n Notifier) Dispatch(ctx context.Context, notice Notice) {
	if n.Mailer == nil {
		return
	}
	if n.Pending == nil {
		n.deliver(ctx, notice)
		return
	}
	n.Pending.Add(1)
	go func() {
		defer n.Pending.Done()
		n.deliver(ctx, notice)
	}()
}

// WaitPending blocks until background deliveries finish or timeout passes.
// It reports whether everything was delivered in time.
func WaitPending(wg *sync.WaitGroup, timeout time.Duration) bool {
	if wg == nil {
		return true
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (n Notifier) deliver(ctx context.Context, notice Notice) {
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if !notice.AdminOnly {
		if notice.CustomerEmail == "" {
			n.count(notice.Event, "customer", "skipped")
		} else {
			n.send(sendCtx, notice.Event, "customer", notice.Customer, mail.Message{
				To:          []string{notice.CustomerEmail},
				BCC:         n.BCC,
				Attachments: notice.Attachments,
			})
		}
	}

	if n.AdminAddress == "" {
		n.count(notice.Event, "admin", "skipped")
		return
	}
	admin := notice.Customer
	if notice.Admin != nil {
		admin = *notice.Admin
	}
	n.send(sendCtx, notice.Event, "admin", admin, mail.Message{
		To:          []string{n.AdminAddress},
		ReplyTo:     notice.CustomerEmail,
		Attachments: notice.Attachments,
	})
}

func (n Notifier) send(ctx context.Context, event, recipient string, content mail.Content, msg mail.Message) {
	text, html, err := mail.Render(content)
	if err != nil {
		n.count(event, recipient, "failed")
		utils.LogError(n.RequestID, "notify", event, fmt.Errorf("render %s copy: %w", recipient, err))
		return
	}
	msg.Subject = content.Subject
	msg.Text = text
	msg.HTML = html
	if err := n.Mailer.Send(ctx, msg); err != nil {
		n.count(event, recipient, "failed")
		utils.LogError(n.RequestID, "notify", event, fmt.Errorf("send %s copy: %w", recipient, err))
		return
	}
	n.count(event, recipient, "sent")
	utils.LogEvent(n.RequestID, "notify", event, "sent "+recipient+" copy")
}

func (n Notifier) count(event, recipient, outcome string) {
	observability.NotificationsTotal.WithLabelValues(event, recipient, outcome).Inc()
}
