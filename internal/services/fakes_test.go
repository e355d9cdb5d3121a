package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/mail"
	"charter/internal/numbering"
	"charter/internal/payments"
	"charter/internal/pricing"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

var errDuplicate = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) to(addr string) []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mail.Message
	for _, msg := range m.sent {
		for _, to := range msg.To {
			if to == addr {
				out = append(out, msg)
			}
		}
	}
	return out
}

type seqNumbers struct {
	mu   sync.Mutex
	year int
	last map[string]int
}

func newSeqNumbers(year int) *seqNumbers {
	return &seqNumbers{year: year, last: map[string]int{}}
}

func (n *seqNumbers) Next(_ context.Context, prefix string) (numbering.Number, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last[prefix]++
	return numbering.Number{Prefix: prefix, Year: n.year, Seq: n.last[prefix]}, nil
}

type memOffers struct {
	mu   sync.Mutex
	rows map[string]models.Offer
}

func newMemOffers() *memOffers { return &memOffers{rows: map[string]models.Offer{}} }

func (s *memOffers) Insert(_ context.Context, o *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.OfferNumber == o.OfferNumber {
			return errDuplicate
		}
	}
	s.rows[o.ID] = *o
	return nil
}

func (s *memOffers) GetByID(_ context.Context, id string) (models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.rows[id]
	if !ok {
		return models.Offer{}, domain.NotFoundError{Resource: "offer"}
	}
	return o, nil
}

func (s *memOffers) List(_ context.Context, f models.OfferFilter) ([]models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Offer{}
	for _, o := range s.rows {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OfferNumber < out[j].OfferNumber })
	return out, nil
}

func (s *memOffers) Update(_ context.Context, o *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[o.ID]; !ok {
		return domain.NotFoundError{Resource: "offer"}
	}
	s.rows[o.ID] = *o
	return nil
}

func (s *memOffers) Transition(_ context.Context, id string, from, to domain.OfferStatus, q *pricing.Quote) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.rows[id]
	if !ok || o.Status != string(from) {
		return false, nil
	}
	o.Status = string(to)
	if q != nil {
		nd := func(d decimal.Decimal) decimal.NullDecimal { return decimal.NewNullDecimal(d) }
		o.VATRate = nd(q.Rate)
		o.OutboundExVAT, o.OutboundVAT, o.OutboundTotal = nd(q.Outbound.ExVAT), nd(q.Outbound.VAT), nd(q.Outbound.Total)
		if q.Return != nil {
			o.ReturnExVAT, o.ReturnVAT, o.ReturnTotal = nd(q.Return.ExVAT), nd(q.Return.VAT), nd(q.Return.Total)
		}
		o.AmountExVAT, o.VATAmount, o.TotalAmount = nd(q.Total.ExVAT), nd(q.Total.VAT), nd(q.Total.Total)
	}
	s.rows[id] = o
	return true, nil
}

type memBookings struct {
	mu        sync.Mutex
	rows      map[string]models.Booking
	failTimes int
	inserts   int
}

func newMemBookings() *memBookings { return &memBookings{rows: map[string]models.Booking{}} }

func (s *memBookings) Insert(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.inserts <= s.failTimes {
		return errDuplicate
	}
	s.rows[b.ID] = *b
	return nil
}

func (s *memBookings) GetByID(_ context.Context, id string) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func (s *memBookings) List(_ context.Context, f models.BookingFilter) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.rows {
		if f.SourceOfferID != "" && b.SourceOfferID != f.SourceOfferID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *memBookings) Update(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[b.ID] = *b
	return nil
}

func (s *memBookings) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	delete(s.rows, id)
	return nil
}

func (s *memBookings) Schedule(_ context.Context, from, to string) ([]models.ScheduleEntry, error) {
	return []models.ScheduleEntry{{BookingNumber: "BK25001", DepartureDate: from}}, nil
}

type memDepartures struct {
	mu   sync.Mutex
	rows []models.TripDeparture
}

func (s *memDepartures) ListByTrip(_ context.Context, tripID string) ([]models.TripDeparture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TripDeparture{}
	for _, d := range s.rows {
		if d.TripID == tripID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartDate < out[j].DepartDate })
	return out, nil
}

func (s *memDepartures) find(pred func(models.TripDeparture) bool) (int, bool) {
	for i, d := range s.rows {
		if pred(d) {
			return i, true
		}
	}
	return -1, false
}

func (s *memDepartures) Get(_ context.Context, tripID, date string) (models.TripDeparture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(func(d models.TripDeparture) bool { return d.TripID == tripID && d.DepartDate == date })
	if !ok {
		return models.TripDeparture{}, domain.NotFoundError{Resource: "departure"}
	}
	return s.rows[i], nil
}

func (s *memDepartures) GetByID(_ context.Context, tripID, id string) (models.TripDeparture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(func(d models.TripDeparture) bool { return d.TripID == tripID && d.ID == id })
	if !ok {
		return models.TripDeparture{}, domain.NotFoundError{Resource: "departure"}
	}
	return s.rows[i], nil
}

func (s *memDepartures) Insert(_ context.Context, d *models.TripDeparture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.find(func(x models.TripDeparture) bool { return x.TripID == d.TripID && x.DepartDate == d.DepartDate }); ok {
		return domain.ConflictError{Resource: "departure"}
	}
	s.rows = append(s.rows, *d)
	return nil
}

func (s *memDepartures) Update(_ context.Context, d *models.TripDeparture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(func(x models.TripDeparture) bool { return x.ID == d.ID })
	if !ok {
		return domain.NotFoundError{Resource: "departure"}
	}
	s.rows[i] = *d
	return nil
}

func (s *memDepartures) Delete(_ context.Context, tripID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(func(x models.TripDeparture) bool { return x.TripID == tripID && x.ID == id })
	if !ok {
		return domain.NotFoundError{Resource: "departure"}
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

func (s *memDepartures) Reserve(_ context.Context, tripID, date string, n, defaultCap int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(func(x models.TripDeparture) bool { return x.TripID == tripID && x.DepartDate == date })
	if !ok {
		if n > defaultCap {
			return domain.ConflictError{Resource: "departure"}
		}
		s.rows = append(s.rows, models.TripDeparture{ID: "auto", TripID: tripID, DepartDate: date, SeatsReserved: n})
		return nil
	}
	capacity := defaultCap
	if s.rows[i].CapacityTotal != nil {
		capacity = *s.rows[i].CapacityTotal
	}
	if capacity-s.rows[i].SeatsReserved < n {
		return domain.ConflictError{Resource: "departure", Msg: "not enough seats left"}
	}
	s.rows[i].SeatsReserved += n
	return nil
}

type memTrips struct {
	mu        sync.Mutex
	rows      map[string]models.Trip
	published []models.PublicTrip
	listCalls int
}

func newMemTrips(trips ...models.Trip) *memTrips {
	s := &memTrips{rows: map[string]models.Trip{}}
	for _, t := range trips {
		s.rows[t.ID] = t
	}
	return s
}

func (s *memTrips) Insert(_ context.Context, t *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[t.ID] = *t
	return nil
}

func (s *memTrips) GetByID(_ context.Context, id string) (models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[id]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func (s *memTrips) List(context.Context) ([]models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Trip{}
	for _, t := range s.rows {
		out = append(out, t)
	}
	return out, nil
}

func (s *memTrips) Update(_ context.Context, t *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[t.ID] = *t
	return nil
}

func (s *memTrips) SetDeparturesCache(_ context.Context, id string, deps []models.CachedDeparture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[id]
	if !ok {
		return domain.NotFoundError{Resource: "trip"}
	}
	t.DeparturesCache = deps
	s.rows[id] = t
	return nil
}

func (s *memTrips) ListIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []string{}
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memTrips) ListPublished(_ context.Context, _ string, limit int) ([]models.PublicTrip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if len(s.published) > limit {
		return s.published[:limit], nil
	}
	return s.published, nil
}

type memTickets struct {
	mu   sync.Mutex
	rows map[string]models.TicketBooking
}

func newMemTickets() *memTickets { return &memTickets{rows: map[string]models.TicketBooking{}} }

func (s *memTickets) Insert(_ context.Context, t *models.TicketBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[t.ID] = *t
	return nil
}

func (s *memTickets) GetByID(_ context.Context, id string) (models.TicketBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[id]
	if !ok {
		return models.TicketBooking{}, domain.NotFoundError{Resource: "ticket_booking"}
	}
	return t, nil
}

func (s *memTickets) SetCheckoutSession(_ context.Context, id, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.rows[id]
	t.CheckoutSessionID = sessionID
	s.rows[id] = t
	return nil
}

func (s *memTickets) SetStatus(_ context.Context, id string, from, to domain.TicketStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[id]
	if !ok || t.Status != string(from) {
		return false, nil
	}
	t.Status = string(to)
	s.rows[id] = t
	return true, nil
}

func (s *memTickets) ExpirePending(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.rows {
		if t.Status == string(domain.TicketPending) && t.CreatedAt.Before(cutoff) {
			t.Status = string(domain.TicketExpired)
			s.rows[id] = t
			n++
		}
	}
	return n, nil
}

// fakeGateway treats the payload as the order id and any signature other
// than "bad" as valid.
type fakeGateway struct {
	requests []payments.CheckoutRequest
	status   string
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (payments.CheckoutSession, error) {
	g.requests = append(g.requests, req)
	return payments.CheckoutSession{ID: "cs_test_" + req.OrderNumber, URL: "https://checkout.example/" + req.OrderNumber}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (payments.Event, error) {
	if signature == "bad" {
		return payments.Event{}, fmt.Errorf("signature mismatch")
	}
	status := g.status
	if status == "" {
		status = "paid"
	}
	return payments.Event{
		ID:              "evt_1",
		Type:            payments.EventCheckoutCompleted,
		PaymentStatus:   status,
		TicketBookingID: strings.TrimSpace(string(payload)),
	}, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func intPtr(n int) *int { return &n }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func nullDec(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }
