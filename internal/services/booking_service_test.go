package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"charter/internal/domain"
	"charter/internal/domain/models"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingService(store *memBookings, mailer *captureMailer) BookingService {
	return BookingService{
		Bookings: store,
		Numbers:  newSeqNumbers(2025),
		Notifier: Notifier{Mailer: mailer, AdminAddress: adminBox, Timeout: time.Second},
		Prefix:   "BK",
	}
}

func bookingInput() BookingInput {
	return BookingInput{
		ContactInput: ContactInput{CustomerName: "Skolan i Åhus", CustomerEmail: "rektor@ahus.example"},
		JourneyInput: JourneyInput{
			DeparturePlace: "Åhus",
			Destination:    "Lund",
			DepartureDate:  "2025-09-12",
			DepartureTime:  "7:30",
			Passengers:     42,
		},
	}
}

func TestBookingCreateRetriesTakenNumbers(t *testing.T) {
	store := newMemBookings()
	store.failTimes = 4
	mailer := &captureMailer{}
	svc := newBookingService(store, mailer)

	b, err := svc.Create(context.Background(), bookingInput())
	require.NoError(t, err)
	assert.Equal(t, "BK25005", b.BookingNumber)
	assert.Equal(t, "07:30", b.DepartureTime)
	assert.Equal(t, string(domain.BookingBooked), b.Status)
	assert.Len(t, store.rows, 1)
	assert.Len(t, mailer.to("rektor@ahus.example"), 1)
}

func TestBookingCreateGivesUpAfterFiveCollisions(t *testing.T) {
	store := newMemBookings()
	store.failTimes = 5
	svc := newBookingService(store, &captureMailer{})

	_, err := svc.Create(context.Background(), bookingInput())
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	var myErr *mysql.MySQLError
	assert.True(t, errors.As(err, &myErr), "store error stays reachable")
	assert.Equal(t, 5, store.inserts)
	assert.Empty(t, store.rows)
}

func TestBookingRejectsMalformedAssignment(t *testing.T) {
	store := newMemBookings()
	svc := newBookingService(store, &captureMailer{})

	in := bookingInput()
	in.DriverID = "driver-7"
	_, err := svc.Create(context.Background(), in)
	require.True(t, domain.IsValidation(err))
	var ve domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "driver_id", ve.Field)
	assert.Zero(t, store.inserts)

	in = bookingInput()
	in.VehicleID = " 2F0C3A8E-6A43-4A55-8D8C-0D7E2A9D5B11 "
	b, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "2f0c3a8e-6a43-4a55-8d8c-0d7e2a9d5b11", b.VehicleID)
}

func TestBookingFromOfferCopiesLegsAndPrice(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	in := kristianstadInput()
	in.ReturnDate, in.ReturnTime = "2025-06-03", "17:00"
	o, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	o, err = f.svc.SendProposal(ctx, o.ID, ProposalInput{OutboundTotal: dec("5300"), ReturnTotal: decPtr("5300")})
	require.NoError(t, err)

	b, err := f.svc.Bookings.CreateFromOffer(ctx, o)
	require.NoError(t, err)
	assert.Equal(t, o.ReturnDeparturePlace, b.ReturnDeparturePlace)
	assert.Equal(t, "2025-06-03", b.ReturnDate)
	assert.True(t, b.TotalAmount.Decimal.Equal(o.TotalAmount.Decimal))

	// Later offer edits do not reach the booking.
	stored := f.offers.rows[o.ID]
	stored.CustomerName = "Someone Else"
	f.offers.rows[o.ID] = stored
	got, err := f.svc.Bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna Berg", got.CustomerName)
}

func TestBookingValidation(t *testing.T) {
	svc := newBookingService(newMemBookings(), &captureMailer{})
	ctx := context.Background()

	cases := map[string]func(*BookingInput){
		"missing destination": func(in *BookingInput) { in.Destination = "" },
		"bad date":            func(in *BookingInput) { in.DepartureDate = "12/09/2025" },
		"bad time":            func(in *BookingInput) { in.DepartureTime = "25:00" },
		"bad status":          func(in *BookingInput) { in.Status = "done" },
		"bad email":           func(in *BookingInput) { in.CustomerEmail = "not-an-email" },
		"negative total":      func(in *BookingInput) { in.TotalAmount = nullDec("-1") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := bookingInput()
			mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestBookingUpdateAndDelete(t *testing.T) {
	store := newMemBookings()
	svc := newBookingService(store, &captureMailer{})
	ctx := context.Background()

	b, err := svc.Create(ctx, bookingInput())
	require.NoError(t, err)

	in := bookingInput()
	in.Status = "genomford"
	in.DriverID = "d-1"
	updated, err := svc.Update(ctx, b.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "genomford", updated.Status)
	assert.Equal(t, "d-1", updated.DriverID)
	assert.Equal(t, b.BookingNumber, updated.BookingNumber)

	require.NoError(t, svc.Delete(ctx, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(svc.Delete(ctx, b.ID)))
}

func TestBookingListValidatesStatus(t *testing.T) {
	svc := newBookingService(newMemBookings(), &captureMailer{})
	_, err := svc.List(context.Background(), models.BookingFilter{Status: "pågår"})
	assert.True(t, domain.IsValidation(err))
}

func TestScheduleDefaultsAndLimits(t *testing.T) {
	r := ReportsService{Bookings: newMemBookings()}
	ctx := context.Background()

	rows, err := r.Schedule(ctx, ScheduleFilter{From: "2025-06-01"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-06-01", rows[0].DepartureDate)

	_, err = r.Schedule(ctx, ScheduleFilter{From: "2025-06-10", To: "2025-06-01"})
	assert.True(t, domain.IsValidation(err))
	_, err = r.Schedule(ctx, ScheduleFilter{From: "2025-01-01", To: "2026-06-01"})
	assert.True(t, domain.IsValidation(err))
	_, err = r.Schedule(ctx, ScheduleFilter{From: "juni"})
	assert.True(t, domain.IsValidation(err))
}
