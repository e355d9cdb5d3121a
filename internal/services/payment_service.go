package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/numbering"
	"charter/internal/observability"
	"charter/internal/payments"
	"charter/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxTicketsPerOrder = 20

type TicketStore interface {
	Insert(ctx context.Context, t *models.TicketBooking) error
	GetByID(ctx context.Context, id string) (models.TicketBooking, error)
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	SetStatus(ctx context.Context, id string, from, to domain.TicketStatus) (bool, error)
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// CheckoutInput is posted by the public booking widget.
type CheckoutInput struct {
	DepartDate    string  `json:"depart_date" form:"depart_date"`
	Quantity      FlexInt `json:"quantity" form:"quantity"`
	CustomerName  string  `json:"customer_name" form:"customer_name"`
	CustomerEmail string  `json:"customer_email" form:"customer_email"`
	CustomerPhone string  `json:"customer_phone" form:"customer_phone"`
}

type CheckoutResult struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Amount      decimal.Decimal `json:"amount"`
	CheckoutURL string          `json:"checkout_url"`
}

// TicketService sells seats on catalog trips through hosted checkout.
type TicketService struct {
	Tickets    TicketStore
	Trips      TripStore
	Capacity   CapacityService
	Numbers    NumberSource
	Payments   payments.Gateway
	Notifier   Notifier
	Prefix     string
	PendingTTL time.Duration
	RequestID  string
	Now        func() time.Time
}

func (s TicketService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// StartCheckout creates a pending TB order and a checkout session for it.
// Seats are only taken once payment is confirmed.
func (s TicketService) StartCheckout(ctx context.Context, tripID string, in CheckoutInput) (CheckoutResult, error) {
	trip, err := s.Trips.GetByID(ctx, tripID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if !trip.Published {
		return CheckoutResult{}, domain.NotFoundError{Resource: "trip"}
	}
	if !trip.PriceFrom.Valid || !trip.PriceFrom.Decimal.IsPositive() {
		return CheckoutResult{}, domain.ValidationError{Field: "trip_id", Msg: "trip is not for sale online"}
	}

	t, err := s.checkoutOrder(tripID, in, trip.PriceFrom.Decimal)
	if err != nil {
		return CheckoutResult{}, err
	}

	dep, err := s.Capacity.Departures.Get(ctx, tripID, t.DepartDate)
	if err != nil {
		return CheckoutResult{}, err
	}
	if av := availability(tripID, t.DepartDate, dep.CapacityTotal, dep.SeatsReserved, s.Capacity.defaultCap()); av.SeatsLeft < t.Quantity {
		return CheckoutResult{}, domain.ConflictError{Resource: "departure", Msg: fmt.Sprintf("only %d seats left", av.SeatsLeft)}
	}

	number, err := numbering.InsertWithRetry(ctx, insertAttempts, nextNumber(s.Numbers, s.Prefix),
		func(ctx context.Context, num string) error {
			t.OrderNumber = num
			return s.Tickets.Insert(ctx, &t)
		})
	if err != nil {
		if domain.IsConflict(err) {
			return CheckoutResult{}, err
		}
		return CheckoutResult{}, domain.InternalError{Msg: "could not store order", Err: err}
	}
	t.OrderNumber = number

	session, err := s.Payments.CreateCheckout(ctx, payments.CheckoutRequest{
		OrderID:       t.ID,
		OrderNumber:   t.OrderNumber,
		Description:   fmt.Sprintf("%s %s", trip.Title, t.DepartDate),
		CustomerEmail: t.CustomerEmail,
		UnitAmount:    trip.PriceFrom.Decimal,
		Quantity:      t.Quantity,
		ExpiresIn:     s.PendingTTL,
	})
	if err != nil {
		if _, serr := s.Tickets.SetStatus(ctx, t.ID, domain.TicketPending, domain.TicketExpired); serr != nil {
			utils.LogError(s.RequestID, "tickets", "expire_failed_checkout", serr)
		}
		return CheckoutResult{}, domain.InternalError{Msg: "could not start payment", Err: err}
	}
	if err := s.Tickets.SetCheckoutSession(ctx, t.ID, session.ID); err != nil {
		utils.LogError(s.RequestID, "tickets", "set_session", err)
	}

	observability.TicketOrders.WithLabelValues(string(domain.TicketPending)).Inc()
	utils.LogEvent(s.RequestID, "tickets", "checkout", "order_number="+t.OrderNumber+" session="+session.ID)
	return CheckoutResult{OrderID: t.ID, OrderNumber: t.OrderNumber, Amount: t.Amount, CheckoutURL: session.URL}, nil
}

func (s TicketService) checkoutOrder(tripID string, in CheckoutInput, unit decimal.Decimal) (models.TicketBooking, error) {
	date, err := optionalDate("depart_date", in.DepartDate)
	if err != nil {
		return models.TicketBooking{}, err
	}
	if date == "" {
		return models.TicketBooking{}, domain.ValidationError{Field: "depart_date", Msg: "is required"}
	}
	if date < s.now().In(utils.Stockholm).Format(utils.LayoutDate) {
		return models.TicketBooking{}, domain.ValidationError{Field: "depart_date", Msg: "has already passed"}
	}
	qty := int(in.Quantity)
	if qty <= 0 || qty > maxTicketsPerOrder {
		return models.TicketBooking{}, domain.ValidationError{Field: "quantity", Msg: "must be between 1 and " + strconv.Itoa(maxTicketsPerOrder)}
	}
	name, err := requireText("customer_name", in.CustomerName)
	if err != nil {
		return models.TicketBooking{}, err
	}
	email, err := optionalEmail("customer_email", in.CustomerEmail)
	if err != nil {
		return models.TicketBooking{}, err
	}
	if email == "" {
		return models.TicketBooking{}, domain.ValidationError{Field: "customer_email", Msg: "is required"}
	}
	return models.TicketBooking{
		ID:            uuid.NewString(),
		TripID:        tripID,
		DepartDate:    date,
		Quantity:      qty,
		CustomerName:  name,
		CustomerEmail: email,
		CustomerPhone: utils.TrimOrEmpty(in.CustomerPhone),
		Amount:        unit.Mul(decimal.NewFromInt(int64(qty))),
		Status:        string(domain.TicketPending),
	}, nil
}

// HandleWebhook processes a payment provider callback. The pending -> paid
// update is guarded, so a redelivered event finds nothing to do.
func (s TicketService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.Payments.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return domain.InternalError{Msg: "payments are not configured", Err: err}
		}
		return domain.ValidationError{Field: "Stripe-Signature", Msg: "invalid webhook signature", Err: err}
	}
	if ev.Type != payments.EventCheckoutCompleted {
		utils.LogEvent(s.RequestID, "tickets", "webhook_ignored", "type="+ev.Type+" event="+ev.ID)
		return nil
	}
	if ev.PaymentStatus != "paid" && ev.PaymentStatus != "no_payment_required" {
		utils.LogEvent(s.RequestID, "tickets", "webhook_unpaid", "event="+ev.ID+" payment_status="+ev.PaymentStatus)
		return nil
	}
	if ev.TicketBookingID == "" {
		utils.LogEvent(s.RequestID, "tickets", "webhook_ignored", "event="+ev.ID+" without order reference")
		return nil
	}

	ok, err := s.Tickets.SetStatus(ctx, ev.TicketBookingID, domain.TicketPending, domain.TicketPaid)
	if err != nil {
		return domain.InternalError{Msg: "could not update order", Err: err}
	}
	if !ok {
		// The sweep may have expired the order while the customer was still
		// paying. The money is taken, so the order is revived.
		ok, err = s.reviveExpired(ctx, ev.TicketBookingID)
		if err != nil {
			return domain.InternalError{Msg: "could not update order", Err: err}
		}
		if !ok {
			utils.LogEvent(s.RequestID, "tickets", "webhook_duplicate", "event="+ev.ID+" order="+ev.OrderNumber)
			return nil
		}
		utils.LogEvent(s.RequestID, "tickets", "paid_after_expiry", "event="+ev.ID+" order="+ev.OrderNumber)
	}

	t, err := s.Tickets.GetByID(ctx, ev.TicketBookingID)
	if err != nil {
		return domain.InternalError{Msg: "could not load order", Err: err}
	}
	title := t.TripID
	if trip, err := s.Trips.GetByID(ctx, t.TripID); err == nil {
		title = trip.Title
	}

	if err := s.Capacity.Reserve(ctx, t.TripID, t.DepartDate, t.Quantity); err != nil {
		if !domain.IsConflict(err) {
			// Put the order back so the provider's retry runs the whole step again.
			if _, rerr := s.Tickets.SetStatus(ctx, t.ID, domain.TicketPaid, domain.TicketPending); rerr != nil {
				utils.LogError(s.RequestID, "tickets", "revert_paid", rerr)
			}
			return domain.InternalError{Msg: "could not reserve seats", Err: err}
		}
		if _, err := s.Tickets.SetStatus(ctx, t.ID, domain.TicketPaid, domain.TicketOverbooked); err != nil {
			utils.LogError(s.RequestID, "tickets", "mark_overbooked", err)
		}
		t.Status = string(domain.TicketOverbooked)
		observability.TicketOrders.WithLabelValues(t.Status).Inc()
		utils.LogEvent(s.RequestID, "tickets", "overbooked", "order_number="+t.OrderNumber)
		s.Notifier.Dispatch(ctx, ticketOverbookedNotice(t, title))
		return nil
	}
	t.Status = string(domain.TicketPaid)
	observability.TicketOrders.WithLabelValues(t.Status).Inc()
	utils.LogEvent(s.RequestID, "tickets", "paid", "order_number="+t.OrderNumber)

	pdf, filename, err := buildETicketPDF(t, title)
	if err != nil {
		utils.LogError(s.RequestID, "tickets", "eticket_pdf", err)
		pdf = nil
	}
	s.Notifier.Dispatch(ctx, ticketConfirmedNotice(t, title, pdf, filename))
	return nil
}

func (s TicketService) reviveExpired(ctx context.Context, id string) (bool, error) {
	t, err := s.Tickets.GetByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if t.Status != string(domain.TicketExpired) {
		return false, nil
	}
	return s.Tickets.SetStatus(ctx, id, domain.TicketExpired, domain.TicketPaid)
}

// ExpirePending closes orders whose checkout was never completed.
func (s TicketService) ExpirePending(ctx context.Context) (int64, error) {
	ttl := s.PendingTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	n, err := s.Tickets.ExpirePending(ctx, s.now().UTC().Add(-ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.TicketOrders.WithLabelValues(string(domain.TicketExpired)).Add(float64(n))
		utils.LogEvent(s.RequestID, "tickets", "expire", fmt.Sprintf("expired=%d", n))
	}
	return n, nil
}
