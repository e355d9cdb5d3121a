package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"charter/internal/domain"
	"charter/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPDF(t *testing.T, data []byte, filename, prefix string) {
	t.Helper()
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"), "missing PDF header")
	assert.True(t, strings.HasPrefix(filename, prefix), filename)
	assert.True(t, strings.HasSuffix(filename, ".pdf"), filename)
}

func TestDocsOfferProposal(t *testing.T) {
	offers := newMemOffers()
	offers.rows["o1"] = models.Offer{
		ID:             "o1",
		OfferNumber:    "HB25007",
		Status:         "besvarad",
		CustomerName:   "Åsa Öberg",
		DeparturePlace: "Växjö",
		Destination:    "Göteborg",
		DepartureDate:  "2025-05-20",
		Passengers:     30,
		VATRate:        nullDec("0.06"),
		OutboundTotal:  nullDec("5300"),
		AmountExVAT:    nullDec("5000"),
		VATAmount:      nullDec("300"),
		TotalAmount:    nullDec("5300"),
	}
	svc := DocsService{Offers: offers, Now: func() time.Time { return time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC) }}

	data, name, err := svc.OfferProposal(context.Background(), "o1")
	require.NoError(t, err)
	assertPDF(t, data, name, "OFFERT_HB25007")

	_, _, err = svc.OfferProposal(context.Background(), "nope")
	assert.True(t, domain.IsNotFound(err))
}

type memAgreements struct {
	rows map[string]models.AssociationAgreement
}

func (m *memAgreements) Insert(_ context.Context, a *models.AssociationAgreement) error {
	m.rows[a.ID] = *a
	return nil
}

func (m *memAgreements) GetByID(_ context.Context, id string) (models.AssociationAgreement, error) {
	a, ok := m.rows[id]
	if !ok {
		return a, domain.NotFoundError{Resource: "agreement"}
	}
	return a, nil
}

func (m *memAgreements) List(context.Context) ([]models.AssociationAgreement, error) {
	out := []models.AssociationAgreement{}
	for _, a := range m.rows {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAgreements) Update(_ context.Context, a *models.AssociationAgreement) error {
	m.rows[a.ID] = *a
	return nil
}

func TestDocsAgreement(t *testing.T) {
	agreements := &memAgreements{rows: map[string]models.AssociationAgreement{}}
	svc := AgreementService{Agreements: agreements}
	a, err := svc.Create(context.Background(), AgreementInput{
		AssociationName: "IFK Kristianstad / Ungdom",
		ValidFrom:       "2025-01-01",
		ValidTo:         "2025-12-31",
		DiscountPercent: dec("10"),
		Terms:           "Gäller resor inom Skåne.",
	})
	require.NoError(t, err)

	data, name, err := DocsService{Agreements: agreements}.Agreement(context.Background(), a.ID)
	require.NoError(t, err)
	assertPDF(t, data, name, "AVTAL_IFK_Kristianstad___Ungdom")
}

func TestDocsETicketHasQR(t *testing.T) {
	tickets := newMemTickets()
	tickets.rows["t1"] = models.TicketBooking{
		ID: "t1", OrderNumber: "TB25003", TripID: "gota", DepartDate: "2025-06-14",
		Quantity: 2, CustomerName: "Lars Holm", Amount: dec("900"), Status: "paid",
	}
	trips := newMemTrips(models.Trip{ID: "gota", Title: "Göta kanal"})

	data, name, err := DocsService{Tickets: tickets, Trips: trips}.ETicket(context.Background(), "t1")
	require.NoError(t, err)
	assertPDF(t, data, name, "BILJETT_TB25003")
	assert.Contains(t, string(data), "/Subtype /Image")
}

func TestSafeFilenamePart(t *testing.T) {
	assert.Equal(t, "NA", safeFilenamePart("  "))
	assert.Equal(t, "a_b_c", safeFilenamePart("a/b:c"))
	long := strings.Repeat("å", 50)
	assert.Equal(t, strings.Repeat("å", 40), safeFilenamePart(long))
}
