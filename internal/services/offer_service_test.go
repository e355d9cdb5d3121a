package services

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"charter/internal/domain"
	"charter/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminBox = "kontor@buss.example"

type offerFixture struct {
	svc      OfferService
	offers   *memOffers
	bookings *memBookings
	mailer   *captureMailer
}

func newOfferFixture() offerFixture {
	mailer := &captureMailer{}
	notifier := Notifier{Mailer: mailer, AdminAddress: adminBox, Timeout: time.Second}
	numbers := newSeqNumbers(2025)
	offers := newMemOffers()
	bookings := newMemBookings()
	svc := OfferService{
		Offers:   offers,
		Numbers:  numbers,
		Notifier: notifier,
		Bookings: BookingService{Bookings: bookings, Numbers: numbers, Notifier: notifier, Prefix: "BK"},
		Tokens: TokenService{
			Secret:   []byte("test-secret"),
			OfferTTL: time.Hour,
			AdminTTL: time.Hour,
		},
		Prefix:        "HB",
		VATRate:       decimal.RequireFromString("0.06"),
		ServiceVAT:    decimal.RequireFromString("0.25"),
		PublicBaseURL: "https://buss.example",
	}
	return offerFixture{svc: svc, offers: offers, bookings: bookings, mailer: mailer}
}

func kristianstadInput() OfferInput {
	return OfferInput{
		ContactInput: ContactInput{CustomerName: "Anna Berg", CustomerEmail: "Anna@Example.se"},
		JourneyInput: JourneyInput{
			DeparturePlace: "Kristianstad",
			Destination:    "Malmö C",
			DepartureDate:  "2025-06-01",
			Passengers:     15,
		},
	}
}

func TestOfferCreateSendsOneCustomerAndOneAdminEmail(t *testing.T) {
	f := newOfferFixture()

	o, err := f.svc.Create(context.Background(), kristianstadInput())
	require.NoError(t, err)

	assert.Equal(t, string(domain.OfferReceived), o.Status)
	assert.Regexp(t, regexp.MustCompile(`^HB\d{2}\d+$`), o.OfferNumber)
	assert.Equal(t, "HB25001", o.OfferNumber)
	assert.Equal(t, "anna@example.se", o.CustomerEmail)

	customer := f.mailer.to("anna@example.se")
	admin := f.mailer.to(adminBox)
	require.Len(t, customer, 1)
	require.Len(t, admin, 1)
	assert.Len(t, f.mailer.sent, 2)
	assert.Contains(t, customer[0].Subject, o.OfferNumber)
	assert.Contains(t, customer[0].Text, o.OfferNumber)
	assert.Contains(t, admin[0].Subject, o.OfferNumber)
	assert.Equal(t, "anna@example.se", admin[0].ReplyTo)
}

func TestOfferNumbersIncrease(t *testing.T) {
	f := newOfferFixture()
	var prev string
	for i := 0; i < 5; i++ {
		o, err := f.svc.Create(context.Background(), kristianstadInput())
		require.NoError(t, err)
		assert.Greater(t, o.OfferNumber, prev)
		prev = o.OfferNumber
	}
}

func TestOfferCreateWithoutEmailOnlyNotifiesOffice(t *testing.T) {
	f := newOfferFixture()
	in := kristianstadInput()
	in.CustomerEmail = ""

	_, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, []string{adminBox}, f.mailer.sent[0].To)
}

func TestOfferCreateMailFailureDoesNotFail(t *testing.T) {
	f := newOfferFixture()
	f.mailer.err = assert.AnError

	o, err := f.svc.Create(context.Background(), kristianstadInput())
	require.NoError(t, err)
	_, err = f.offers.GetByID(context.Background(), o.ID)
	assert.NoError(t, err)
}

func TestOfferCreateRejectsPartialReturn(t *testing.T) {
	f := newOfferFixture()
	in := kristianstadInput()
	in.ReturnDate = "2025-06-02"

	_, err := f.svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, f.offers.rows)
	assert.Empty(t, f.mailer.sent)
}

func TestOfferLifecycle(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	in := kristianstadInput()
	in.ReturnDate, in.ReturnTime = "2025-06-01", "18:00"

	o, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Malmö C", o.ReturnDeparturePlace)
	assert.Equal(t, "Kristianstad", o.ReturnDestination)

	ret := decimal.NewFromInt(5300)
	answered, err := f.svc.SendProposal(ctx, o.ID, ProposalInput{OutboundTotal: decimal.NewFromInt(5300), ReturnTotal: &ret})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OfferAnswered), answered.Status)
	assert.True(t, answered.TotalAmount.Decimal.Equal(decimal.NewFromInt(10600)))
	assert.True(t, answered.VATAmount.Decimal.Equal(decimal.NewFromInt(600)))

	proposal := f.mailer.to("anna@example.se")
	require.Len(t, proposal, 2)
	assert.Contains(t, proposal[1].Text, "https://buss.example/offert/"+o.ID+"?token=")

	approved, booking, err := f.svc.Accept(ctx, o.ID, true)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OfferApproved), approved.Status)
	require.NotNil(t, booking)
	assert.Equal(t, "BK25001", booking.BookingNumber)
	assert.Equal(t, o.ID, booking.SourceOfferID)
	assert.Equal(t, 15, booking.Passengers)
	assert.True(t, booking.TotalAmount.Decimal.Equal(decimal.NewFromInt(10600)))

	_, err = f.svc.Cancel(ctx, o.ID)
	assert.True(t, domain.IsConflict(err), "approved offers are terminal")

	_, err = f.svc.Update(ctx, o.ID, in)
	assert.True(t, domain.IsConflict(err))
}

func TestOfferTransitionRejectsUnknownAndIllegal(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	o, err := f.svc.Create(ctx, kristianstadInput())
	require.NoError(t, err)

	for _, status := range []string{"godkand", "Godkänd", "accepted", ""} {
		_, err := f.svc.Transition(ctx, o.ID, status)
		assert.True(t, domain.IsValidation(err), "status %q", status)
	}

	_, err = f.svc.Transition(ctx, o.ID, "godkänd")
	assert.True(t, domain.IsConflict(err), "inkommen cannot jump to godkänd")

	_, err = f.svc.Transition(ctx, o.ID, "besvarad")
	assert.True(t, domain.IsValidation(err), "answering needs a price")

	stored, _ := f.offers.GetByID(ctx, o.ID)
	assert.Equal(t, string(domain.OfferReceived), stored.Status)

	cancelled, err := f.svc.Transition(ctx, o.ID, " makulerad ")
	require.NoError(t, err)
	assert.Equal(t, string(domain.OfferCancelled), cancelled.Status)
}

func TestOfferTransitionLostRaceIsConflict(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	o, err := f.svc.Create(ctx, kristianstadInput())
	require.NoError(t, err)

	// Someone else cancels between our read and our write.
	stale := o
	_, err = f.svc.Cancel(ctx, o.ID)
	require.NoError(t, err)

	_, err = f.svc.move(ctx, stale, domain.OfferAnswered, nil)
	assert.True(t, domain.IsConflict(err))
}

func TestSendProposalValidation(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	o, err := f.svc.Create(ctx, kristianstadInput())
	require.NoError(t, err)

	_, err = f.svc.SendProposal(ctx, o.ID, ProposalInput{})
	assert.True(t, domain.IsValidation(err))

	ret := decimal.NewFromInt(100)
	_, err = f.svc.SendProposal(ctx, o.ID, ProposalInput{OutboundTotal: decimal.NewFromInt(100), ReturnTotal: &ret})
	assert.True(t, domain.IsValidation(err), "one way offer with a return price")

	bad := decimal.RequireFromString("1.5")
	_, err = f.svc.SendProposal(ctx, o.ID, ProposalInput{OutboundTotal: decimal.NewFromInt(100), VATRate: &bad})
	assert.True(t, domain.IsValidation(err))
}

func TestSendProposalVATClass(t *testing.T) {
	cases := []struct {
		name         string
		in           ProposalInput
		total, vat   int64
		rate         string
		invalidField string
	}{
		{"passenger default", ProposalInput{OutboundTotal: decimal.NewFromInt(10600)}, 10600, 600, "0.06", ""},
		{"service hire", ProposalInput{OutboundTotal: decimal.NewFromInt(12500), VATClass: "Service"}, 12500, 2500, "0.25", ""},
		{"net prices", ProposalInput{OutboundTotal: decimal.NewFromInt(10000), PricesExVAT: true}, 10600, 600, "0.06", ""},
		{"explicit rate wins", ProposalInput{OutboundTotal: decimal.NewFromInt(1120), VATClass: "service", VATRate: decPtr("0.12")}, 1120, 120, "0.12", ""},
		{"unknown class", ProposalInput{OutboundTotal: decimal.NewFromInt(1000), VATClass: "freight"}, 0, 0, "", "vat_class"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOfferFixture()
			ctx := context.Background()
			o, err := f.svc.Create(ctx, kristianstadInput())
			require.NoError(t, err)

			got, err := f.svc.SendProposal(ctx, o.ID, tc.in)
			if tc.invalidField != "" {
				var ve domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tc.invalidField, ve.Field)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.TotalAmount.Decimal.Equal(decimal.NewFromInt(tc.total)), got.TotalAmount.Decimal.String())
			assert.True(t, got.VATAmount.Decimal.Equal(decimal.NewFromInt(tc.vat)), got.VATAmount.Decimal.String())
			assert.True(t, got.VATRate.Decimal.Equal(decimal.RequireFromString(tc.rate)))
		})
	}
}

func TestAcceptByToken(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	o, err := f.svc.Create(ctx, kristianstadInput())
	require.NoError(t, err)
	_, err = f.svc.SendProposal(ctx, o.ID, ProposalInput{OutboundTotal: decimal.NewFromInt(4800)})
	require.NoError(t, err)

	_, err = f.svc.AcceptByToken(ctx, "")
	assert.Equal(t, domain.ReasonMissing, domain.UnauthorizedReason(err))

	admin, err := f.svc.Tokens.IssueAdmin(domain.RequestContext{UserID: "u1"})
	require.NoError(t, err)
	_, err = f.svc.AcceptByToken(ctx, admin)
	assert.Equal(t, domain.ReasonForbidden, domain.UnauthorizedReason(err))

	token, err := f.svc.Tokens.IssueOffer(o.ID)
	require.NoError(t, err)
	viewed, err := f.svc.ViewByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, o.OfferNumber, viewed.OfferNumber)

	approved, err := f.svc.AcceptByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OfferApproved), approved.Status)
	assert.Empty(t, f.bookings.rows, "customer acceptance does not book")

	last := f.mailer.to(adminBox)
	assert.True(t, strings.Contains(last[len(last)-1].Subject, "godkänd"))
}

func TestAcceptRetriesBookingOnApprovedOffer(t *testing.T) {
	f := newOfferFixture()
	ctx := context.Background()
	o, err := f.svc.Create(ctx, kristianstadInput())
	require.NoError(t, err)
	_, err = f.svc.SendProposal(ctx, o.ID, ProposalInput{OutboundTotal: decimal.NewFromInt(4800)})
	require.NoError(t, err)

	f.bookings.failTimes = 5
	approved, booking, err := f.svc.Accept(ctx, o.ID, true)
	require.Error(t, err)
	assert.Nil(t, booking)
	assert.Equal(t, string(domain.OfferApproved), approved.Status)
	assert.Empty(t, f.bookings.rows)

	_, booking, err = f.svc.Accept(ctx, o.ID, true)
	require.NoError(t, err)
	require.NotNil(t, booking)
	assert.Equal(t, "BK25006", booking.BookingNumber)
	assert.Equal(t, o.ID, booking.SourceOfferID)

	_, _, err = f.svc.Accept(ctx, o.ID, true)
	assert.True(t, domain.IsConflict(err))
	assert.Len(t, f.bookings.rows, 1)

	_, _, err = f.svc.Accept(ctx, o.ID, false)
	assert.True(t, domain.IsConflict(err), "plain accept of an approved offer is still illegal")
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	f := newOfferFixture()
	_, err := f.svc.List(context.Background(), models.OfferFilter{Status: "open"})
	assert.True(t, domain.IsValidation(err))
}
