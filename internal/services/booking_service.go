package services

import (
	"context"

	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/numbering"
	"charter/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStore interface {
	Insert(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (models.Booking, error)
	List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error)
	Update(ctx context.Context, b *models.Booking) error
	Delete(ctx context.Context, id string) error
	Schedule(ctx context.Context, from, to string) ([]models.ScheduleEntry, error)
}

// BookingInput is the admin form for a booking entered or edited directly.
type BookingInput struct {
	ContactInput
	JourneyInput
	Status      string              `json:"status"`
	DriverID    string              `json:"driver_id"`
	VehicleID   string              `json:"vehicle_id"`
	TotalAmount decimal.NullDecimal `json:"total_amount"`
	Notes       string              `json:"notes"`
}

type BookingService struct {
	Bookings  BookingStore
	Numbers   NumberSource
	Notifier  Notifier
	Prefix    string
	RequestID string
}

// CreateFromOffer copies legs, contact and price from an approved offer. The
// booking does not follow later changes to the offer.
func (s BookingService) CreateFromOffer(ctx context.Context, o models.Offer) (models.Booking, error) {
	b := models.Booking{
		ID:                   uuid.NewString(),
		Status:               string(domain.BookingBooked),
		SourceOfferID:        o.ID,
		CustomerName:         o.CustomerName,
		CustomerEmail:        o.CustomerEmail,
		CustomerPhone:        o.CustomerPhone,
		CustomerAddress:      o.CustomerAddress,
		DeparturePlace:       o.DeparturePlace,
		Destination:          o.Destination,
		DepartureDate:        o.DepartureDate,
		DepartureTime:        o.DepartureTime,
		Passengers:           o.Passengers,
		ReturnDeparturePlace: o.ReturnDeparturePlace,
		ReturnDestination:    o.ReturnDestination,
		ReturnDate:           o.ReturnDate,
		ReturnTime:           o.ReturnTime,
		TotalAmount:          o.TotalAmount,
		Notes:                o.Notes,
	}
	if err := s.insert(ctx, &b); err != nil {
		return models.Booking{}, err
	}
	utils.LogEvent(s.RequestID, "bookings", "create_from_offer",
		"booking_number="+b.BookingNumber+" offer_number="+o.OfferNumber)
	s.Notifier.Dispatch(ctx, bookingConfirmedNotice(b))
	return b, nil
}

// FromOffer returns the booking copied from an offer, or nil when there is
// none.
func (s BookingService) FromOffer(ctx context.Context, offerID string) (*models.Booking, error) {
	rows, err := s.Bookings.List(ctx, models.BookingFilter{SourceOfferID: offerID, Limit: 1})
	if err != nil {
		return nil, domain.InternalError{Msg: "could not load bookings", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s BookingService) Create(ctx context.Context, in BookingInput) (models.Booking, error) {
	b := models.Booking{ID: uuid.NewString(), Status: string(domain.BookingBooked)}
	if err := applyBookingInput(&b, in); err != nil {
		return models.Booking{}, err
	}
	if err := s.insert(ctx, &b); err != nil {
		return models.Booking{}, err
	}
	utils.LogEvent(s.RequestID, "bookings", "create", "booking_number="+b.BookingNumber)
	s.Notifier.Dispatch(ctx, bookingConfirmedNotice(b))
	return b, nil
}

// insert draws BK numbers until the insert no longer collides on
// booking_number, at most insertAttempts times.
func (s BookingService) insert(ctx context.Context, b *models.Booking) error {
	number, err := numbering.InsertWithRetry(ctx, insertAttempts, nextNumber(s.Numbers, s.Prefix),
		func(ctx context.Context, num string) error {
			b.BookingNumber = num
			return s.Bookings.Insert(ctx, b)
		})
	if err != nil {
		if domain.IsConflict(err) || domain.IsValidation(err) {
			return err
		}
		return domain.InternalError{Msg: "could not store booking", Err: err}
	}
	b.BookingNumber = number
	return nil
}

func (s BookingService) Get(ctx context.Context, id string) (models.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

func (s BookingService) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	if f.Status != "" {
		st, err := domain.ParseBookingStatus(f.Status)
		if err != nil {
			return nil, err
		}
		f.Status = string(st)
	}
	return s.Bookings.List(ctx, f)
}

func (s BookingService) Update(ctx context.Context, id string, in BookingInput) (models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if err := applyBookingInput(&b, in); err != nil {
		return models.Booking{}, err
	}
	if err := s.Bookings.Update(ctx, &b); err != nil {
		return models.Booking{}, err
	}
	utils.LogEvent(s.RequestID, "bookings", "update", "booking_number="+b.BookingNumber+" status="+b.Status)
	return b, nil
}

func (s BookingService) Delete(ctx context.Context, id string) error {
	if err := s.Bookings.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "bookings", "delete", "id="+id)
	return nil
}

func applyBookingInput(b *models.Booking, in BookingInput) error {
	contact, err := in.ContactInput.normalize()
	if err != nil {
		return err
	}
	journey, err := in.JourneyInput.normalize()
	if err != nil {
		return err
	}
	if in.Status != "" {
		st, err := domain.ParseBookingStatus(in.Status)
		if err != nil {
			return err
		}
		b.Status = string(st)
	}
	if in.TotalAmount.Valid && in.TotalAmount.Decimal.IsNegative() {
		return domain.ValidationError{Field: "total_amount", Msg: "must not be negative"}
	}

	b.CustomerName = contact.CustomerName
	b.CustomerEmail = contact.CustomerEmail
	b.CustomerPhone = contact.CustomerPhone
	b.CustomerAddress = contact.CustomerAddress
	b.DeparturePlace = journey.DeparturePlace
	b.Destination = journey.Destination
	b.DepartureDate = journey.DepartureDate
	b.DepartureTime = journey.DepartureTime
	b.Passengers = int(journey.Passengers)
	b.ReturnDeparturePlace = journey.ReturnDeparturePlace
	b.ReturnDestination = journey.ReturnDestination
	b.ReturnDate = journey.ReturnDate
	b.ReturnTime = journey.ReturnTime
	if b.DriverID, err = optionalID("driver_id", in.DriverID); err != nil {
		return err
	}
	if b.VehicleID, err = optionalID("vehicle_id", in.VehicleID); err != nil {
		return err
	}
	b.TotalAmount = in.TotalAmount
	b.Notes = utils.TrimOrEmpty(in.Notes)
	return nil
}

// optionalID accepts an empty reference or a well-formed UUID.
func optionalID(field, raw string) (string, error) {
	raw = utils.TrimOrEmpty(raw)
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.ValidationError{Field: field, Msg: "must be a valid id", Err: err}
	}
	return id.String(), nil
}
