package services

import (
	"context"
	"net/url"
	"strings"

	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/numbering"
	"charter/internal/observability"
	"charter/internal/pricing"
	"charter/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const insertAttempts = 5

type OfferStore interface {
	Insert(ctx context.Context, o *models.Offer) error
	GetByID(ctx context.Context, id string) (models.Offer, error)
	List(ctx context.Context, f models.OfferFilter) ([]models.Offer, error)
	Update(ctx context.Context, o *models.Offer) error
	Transition(ctx context.Context, id string, from, to domain.OfferStatus, q *pricing.Quote) (bool, error)
}

// NumberSource hands out HB/BK/TB numbers.
type NumberSource interface {
	Next(ctx context.Context, prefix string) (numbering.Number, error)
}

// ProposalInput carries the VAT inclusive leg totals an admin quotes.
// ProposalInput prices an offer. VATClass picks the configured rate
// ("passenger" by default, "service" for hire without passenger transport);
// VATRate overrides both. With PricesExVAT the leg amounts are net and VAT
// is added on top.
type ProposalInput struct {
	OutboundTotal decimal.Decimal  `json:"outbound_total"`
	ReturnTotal   *decimal.Decimal `json:"return_total"`
	VATRate       *decimal.Decimal `json:"vat_rate"`
	VATClass      string           `json:"vat_class"`
	PricesExVAT   bool             `json:"prices_ex_vat"`
}

const (
	vatClassPassenger = "passenger"
	vatClassService   = "service"
)

type OfferService struct {
	Offers        OfferStore
	Numbers       NumberSource
	Bookings      BookingService
	Notifier      Notifier
	Tokens        TokenService
	Prefix        string
	VATRate       decimal.Decimal
	ServiceVAT    decimal.Decimal
	PublicBaseURL string
	RequestID     string
}

func nextNumber(numbers NumberSource, prefix string) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		n, err := numbers.Next(ctx, prefix)
		if err != nil {
			return "", err
		}
		observability.NumbersAllocated.WithLabelValues(prefix).Inc()
		return n.String(), nil
	}
}

// Create stores a new offer request as inkommen and notifies customer and
// office.
func (s OfferService) Create(ctx context.Context, in OfferInput) (models.Offer, error) {
	contact, err := in.ContactInput.normalize()
	if err != nil {
		return models.Offer{}, err
	}
	journey, err := in.JourneyInput.normalize()
	if err != nil {
		return models.Offer{}, err
	}

	o := models.Offer{ID: uuid.NewString(), Status: string(domain.OfferReceived), Notes: utils.TrimOrEmpty(in.Notes)}
	applyContact(&o, contact)
	applyJourney(&o, journey)

	number, err := numbering.InsertWithRetry(ctx, insertAttempts, nextNumber(s.Numbers, s.Prefix),
		func(ctx context.Context, num string) error {
			o.OfferNumber = num
			return s.Offers.Insert(ctx, &o)
		})
	if err != nil {
		if domain.IsConflict(err) {
			return models.Offer{}, err
		}
		return models.Offer{}, domain.InternalError{Msg: "could not store offer", Err: err}
	}
	o.OfferNumber = number
	utils.LogEvent(s.RequestID, "offers", "create", "offer_number="+number)

	s.Notifier.Dispatch(ctx, offerReceivedNotice(o))
	return o, nil
}

func (s OfferService) Get(ctx context.Context, id string) (models.Offer, error) {
	return s.Offers.GetByID(ctx, id)
}

func (s OfferService) List(ctx context.Context, f models.OfferFilter) ([]models.Offer, error) {
	if f.Status != "" {
		st, err := domain.ParseOfferStatus(f.Status)
		if err != nil {
			return nil, err
		}
		f.Status = string(st)
	}
	return s.Offers.List(ctx, f)
}

// Update rewrites the customer and trip fields. Closed offers are frozen.
func (s OfferService) Update(ctx context.Context, id string, in OfferInput) (models.Offer, error) {
	o, err := s.Offers.GetByID(ctx, id)
	if err != nil {
		return models.Offer{}, err
	}
	if domain.OfferStatus(o.Status).Terminal() {
		return models.Offer{}, domain.ConflictError{Resource: "offer", Msg: "offer is " + o.Status + " and can no longer be edited"}
	}
	contact, err := in.ContactInput.normalize()
	if err != nil {
		return models.Offer{}, err
	}
	journey, err := in.JourneyInput.normalize()
	if err != nil {
		return models.Offer{}, err
	}
	applyContact(&o, contact)
	applyJourney(&o, journey)
	o.Notes = utils.TrimOrEmpty(in.Notes)
	if err := s.Offers.Update(ctx, &o); err != nil {
		return models.Offer{}, err
	}
	utils.LogEvent(s.RequestID, "offers", "update", "offer_number="+o.OfferNumber)
	return o, nil
}

// SendProposal prices the offer and moves it to besvarad.
func (s OfferService) SendProposal(ctx context.Context, id string, in ProposalInput) (models.Offer, error) {
	o, err := s.Offers.GetByID(ctx, id)
	if err != nil {
		return models.Offer{}, err
	}
	if !in.OutboundTotal.IsPositive() {
		return models.Offer{}, domain.ValidationError{Field: "outbound_total", Msg: "must be greater than 0"}
	}
	if o.RoundTrip() && in.ReturnTotal == nil {
		return models.Offer{}, domain.ValidationError{Field: "return_total", Msg: "is required for a round trip"}
	}
	if !o.RoundTrip() && in.ReturnTotal != nil {
		return models.Offer{}, domain.ValidationError{Field: "return_total", Msg: "offer has no return leg"}
	}
	if in.ReturnTotal != nil && in.ReturnTotal.IsNegative() {
		return models.Offer{}, domain.ValidationError{Field: "return_total", Msg: "must not be negative"}
	}
	rate, err := s.proposalRate(in)
	if err != nil {
		return models.Offer{}, err
	}
	q := pricing.Legs(in.OutboundTotal, in.ReturnTotal, rate)
	if in.PricesExVAT {
		q = pricing.NetLegs(in.OutboundTotal, in.ReturnTotal, rate)
	}
	return s.move(ctx, o, domain.OfferAnswered, &q)
}

func (s OfferService) proposalRate(in ProposalInput) (decimal.Decimal, error) {
	if in.VATRate != nil {
		if in.VATRate.IsNegative() || in.VATRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return decimal.Zero, domain.ValidationError{Field: "vat_rate", Msg: "must be between 0 and 1"}
		}
		return *in.VATRate, nil
	}
	switch strings.ToLower(strings.TrimSpace(in.VATClass)) {
	case "", vatClassPassenger:
		return s.VATRate, nil
	case vatClassService:
		return s.ServiceVAT, nil
	default:
		return decimal.Zero, domain.ValidationError{Field: "vat_class", Msg: "must be passenger or service"}
	}
}

// Accept approves the offer. With createBooking a booking copy is made and
// returned as well. An offer that is already approved but has no booking yet
// (an earlier booking insert failed) only gets the booking.
func (s OfferService) Accept(ctx context.Context, id string, createBooking bool) (models.Offer, *models.Booking, error) {
	o, err := s.Offers.GetByID(ctx, id)
	if err != nil {
		return models.Offer{}, nil, err
	}
	if createBooking && o.Status == string(domain.OfferApproved) {
		existing, err := s.Bookings.FromOffer(ctx, o.ID)
		if err != nil {
			return models.Offer{}, nil, err
		}
		if existing != nil {
			return models.Offer{}, nil, domain.ConflictError{Resource: "booking", Msg: "offer already has booking " + existing.BookingNumber}
		}
		utils.LogEvent(s.RequestID, "offers", "accept_retry_booking", "offer_number="+o.OfferNumber)
	} else {
		o, err = s.move(ctx, o, domain.OfferApproved, nil)
		if err != nil {
			return models.Offer{}, nil, err
		}
	}
	if !createBooking {
		return o, nil, nil
	}
	b, err := s.Bookings.CreateFromOffer(ctx, o)
	if err != nil {
		return o, nil, err
	}
	return o, &b, nil
}

func (s OfferService) Cancel(ctx context.Context, id string) (models.Offer, error) {
	o, err := s.Offers.GetByID(ctx, id)
	if err != nil {
		return models.Offer{}, err
	}
	return s.move(ctx, o, domain.OfferCancelled, nil)
}

// Transition is the generic admin status change. Moving to besvarad this way
// requires the offer to carry a price already.
func (s OfferService) Transition(ctx context.Context, id, status string) (models.Offer, error) {
	to, err := domain.ParseOfferStatus(status)
	if err != nil {
		return models.Offer{}, err
	}
	o, err := s.Offers.GetByID(ctx, id)
	if err != nil {
		return models.Offer{}, err
	}
	if to == domain.OfferAnswered && !o.TotalAmount.Valid {
		return models.Offer{}, domain.ValidationError{Field: "status", Msg: "send a proposal with prices to answer an offer"}
	}
	return s.move(ctx, o, to, nil)
}

// ViewByToken loads the offer a customer link points at.
func (s OfferService) ViewByToken(ctx context.Context, token string) (models.Offer, error) {
	id, err := s.Tokens.VerifyOffer(token)
	if err != nil {
		return models.Offer{}, err
	}
	return s.Offers.GetByID(ctx, id)
}

func (s OfferService) AcceptByToken(ctx context.Context, token string) (models.Offer, error) {
	id, err := s.Tokens.VerifyOffer(token)
	if err != nil {
		return models.Offer{}, err
	}
	o, _, err := s.Accept(ctx, id, false)
	return o, err
}

func (s OfferService) move(ctx context.Context, o models.Offer, to domain.OfferStatus, q *pricing.Quote) (models.Offer, error) {
	from := domain.OfferStatus(o.Status)
	if err := domain.CheckTransition(from, to); err != nil {
		return models.Offer{}, err
	}
	ok, err := s.Offers.Transition(ctx, o.ID, from, to, q)
	if err != nil {
		return models.Offer{}, domain.InternalError{Msg: "could not update offer", Err: err}
	}
	if !ok {
		return models.Offer{}, domain.ConflictError{Resource: "offer", Msg: "offer changed while updating, reload and try again"}
	}
	observability.OfferTransitions.WithLabelValues(string(from), string(to)).Inc()
	utils.LogEvent(s.RequestID, "offers", "transition",
		"offer_number="+o.OfferNumber+" from="+string(from)+" to="+string(to))

	updated, err := s.Offers.GetByID(ctx, o.ID)
	if err != nil {
		// The write went through; fall back to what we know.
		updated = o
		updated.Status = string(to)
	}

	switch to {
	case domain.OfferAnswered:
		s.Notifier.Dispatch(ctx, offerAnsweredNotice(updated, s.offerLink(updated.ID)))
	case domain.OfferApproved:
		s.Notifier.Dispatch(ctx, offerApprovedNotice(updated))
	case domain.OfferCancelled:
		s.Notifier.Dispatch(ctx, offerCancelledNotice(updated))
	}
	return updated, nil
}

// offerLink is the customer page for an offer, or "" when no token can be
// made.
func (s OfferService) offerLink(id string) string {
	token, err := s.Tokens.IssueOffer(id)
	if err != nil {
		utils.LogError(s.RequestID, "offers", "issue_token", err)
		return ""
	}
	return s.PublicBaseURL + "/offert/" + url.PathEscape(id) + "?token=" + url.QueryEscape(token)
}

func applyContact(o *models.Offer, c ContactInput) {
	o.CustomerName = c.CustomerName
	o.CustomerReference = c.CustomerReference
	o.CustomerEmail = c.CustomerEmail
	o.CustomerPhone = c.CustomerPhone
	o.CustomerAddress = c.CustomerAddress
}

func applyJourney(o *models.Offer, j JourneyInput) {
	o.DeparturePlace = j.DeparturePlace
	o.Destination = j.Destination
	o.DepartureDate = j.DepartureDate
	o.DepartureTime = j.DepartureTime
	o.Passengers = int(j.Passengers)
	o.ReturnDeparturePlace = j.ReturnDeparturePlace
	o.ReturnDestination = j.ReturnDestination
	o.ReturnDate = j.ReturnDate
	o.ReturnTime = j.ReturnTime
}
