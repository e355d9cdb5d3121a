package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"charter/internal/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierCopies(t *testing.T) {
	mailer := &captureMailer{}
	n := Notifier{Mailer: mailer, AdminAddress: adminBox, BCC: []string{"arkiv@buss.example"}, Timeout: time.Second}
	admin := mail.Content{Subject: "Intern", Heading: "Intern"}

	n.Dispatch(context.Background(), Notice{
		Event:         "test",
		CustomerEmail: "kund@example.se",
		Customer:      mail.Content{Subject: "Hej", Heading: "Hej"},
		Admin:         &admin,
	})
	require.Len(t, mailer.sent, 2)
	customer := mailer.to("kund@example.se")[0]
	assert.Equal(t, "Hej", customer.Subject)
	assert.Equal(t, []string{"arkiv@buss.example"}, customer.BCC)
	office := mailer.to(adminBox)[0]
	assert.Equal(t, "Intern", office.Subject)
	assert.Equal(t, "kund@example.se", office.ReplyTo)
	assert.Empty(t, office.BCC)
}

func TestNotifierIgnoresCancelledRequest(t *testing.T) {
	mailer := &captureMailer{}
	n := Notifier{Mailer: mailer, AdminAddress: adminBox}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n.Dispatch(ctx, Notice{Event: "test", AdminOnly: true, CustomerEmail: "kund@example.se", Customer: mail.Content{Subject: "Larm"}})
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{adminBox}, mailer.sent[0].To)
}

func TestNotifierWithoutMailer(t *testing.T) {
	assert.NotPanics(t, func() {
		Notifier{}.Dispatch(context.Background(), Notice{Event: "test", CustomerEmail: "kund@example.se"})
	})
}

type gatedMailer struct {
	captureMailer
	gate chan struct{}
}

func (m *gatedMailer) Send(ctx context.Context, msg mail.Message) error {
	<-m.gate
	return m.captureMailer.Send(ctx, msg)
}

func TestNotifierBackgroundDelivery(t *testing.T) {
	mailer := &gatedMailer{gate: make(chan struct{})}
	var pending sync.WaitGroup
	n := Notifier{Mailer: mailer, AdminAddress: adminBox, Timeout: time.Second, Pending: &pending}

	n.Dispatch(context.Background(), Notice{Event: "test", CustomerEmail: "kund@example.se", Customer: mail.Content{Subject: "Hej"}})
	assert.Empty(t, mailer.to("kund@example.se"), "dispatch must not wait for the mail server")
	assert.False(t, WaitPending(&pending, 20*time.Millisecond))

	close(mailer.gate)
	require.True(t, WaitPending(&pending, time.Second))
	assert.Len(t, mailer.to("kund@example.se"), 1)
	assert.Len(t, mailer.to(adminBox), 1)
}
