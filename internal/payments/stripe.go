package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charter/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"
)

const EventCheckoutCompleted = "checkout.session.completed"

var ErrNotConfigured = errors.New("payments are not configured")

// CheckoutRequest describes one hosted checkout for a ticket order.
type CheckoutRequest struct {
	OrderID       string
	OrderNumber   string
	Description   string
	CustomerEmail string
	UnitAmount    decimal.Decimal
	Quantity      int
	ExpiresIn     time.Duration
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is the subset of a verified webhook event the service acts on.
type Event struct {
	ID              string
	Type            string
	SessionID       string
	PaymentStatus   string
	TicketBookingID string
	OrderNumber     string
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (Event, error)
}

// StripeGateway talks to Stripe Checkout.
type StripeGateway struct {
	client *stripe.Client
	cfg    config.StripeConfig
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	return &StripeGateway{client: stripe.NewClient(cfg.SecretKey), cfg: cfg}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	if g == nil || g.client == nil || g.cfg.SecretKey == "" {
		return CheckoutSession{}, ErrNotConfigured
	}
	metadata := map[string]string{
		"ticket_booking_id": req.OrderID,
		"order_number":      req.OrderNumber,
	}
	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.cfg.SuccessURL + "?order=" + req.OrderNumber),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		Metadata:          metadata,
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(g.cfg.Currency),
					UnitAmount: stripe.Int64(MinorUnits(req.UnitAmount)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(int64(req.Quantity)),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.ExpiresAt = stripe.Int64(SessionExpiry(time.Now(), req.ExpiresIn).Unix())

	cs, err := g.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return CheckoutSession{ID: cs.ID, URL: cs.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the fields
// of the embedded checkout session.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (Event, error) {
	if g == nil || g.cfg.WebhookSecret == "" {
		return Event{}, ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, err
	}
	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data != nil {
		obj := ev.Data.Raw
		out.SessionID = gjson.GetBytes(obj, "id").String()
		out.PaymentStatus = gjson.GetBytes(obj, "payment_status").String()
		out.TicketBookingID = gjson.GetBytes(obj, "metadata.ticket_booking_id").String()
		out.OrderNumber = gjson.GetBytes(obj, "metadata.order_number").String()
		if out.TicketBookingID == "" {
			out.TicketBookingID = gjson.GetBytes(obj, "client_reference_id").String()
		}
	}
	return out, nil
}

// Stripe accepts checkout session expiries between 30 minutes and 24 hours
// after creation.
const (
	minSessionTTL = 31 * time.Minute
	maxSessionTTL = 24 * time.Hour
)

// SessionExpiry clamps ttl into the window Stripe accepts. Orders whose own
// TTL is shorter are revived by the webhook if paid after the sweep.
func SessionExpiry(now time.Time, ttl time.Duration) time.Time {
	switch {
	case ttl < minSessionTTL:
		ttl = minSessionTTL
	case ttl > maxSessionTTL:
		ttl = maxSessionTTL
	}
	return now.Add(ttl)
}

// MinorUnits converts kronor to öre.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
