package handlers

import (
	"context"
	"sync"
	"time"

	"charter/internal/cache"
	intconfig "charter/internal/config"
	"charter/internal/http/middleware"
	"charter/internal/mail"
	"charter/internal/payments"
	"charter/internal/services"
	"charter/internal/storage"

	"github.com/gin-gonic/gin"
)

// Pinger is the database health probe.
type Pinger interface {
	PingContext(ctx context.Context) error
	MissingTables(ctx context.Context) []string
}

// Deps are the long-lived collaborators. Handlers build request-scoped
// services from them so every log line carries the request id.
type Deps struct {
	Env intconfig.Env
	DB  Pinger

	Offers     services.OfferStore
	Bookings   services.BookingStore
	Departures services.DepartureStore
	Trips      services.TripStore
	Tickets    services.TicketStore
	Drivers    services.DriverStore
	Employees  services.EmployeeStore
	Vehicles   services.VehicleStore
	Agreements services.AgreementStore
	Profiles   services.PriceProfileStore
	Users      services.UserStore
	Numbers    services.NumberSource

	Mailer   mail.Mailer
	Payments payments.Gateway
	Storage  storage.Store
	Cache    cache.Cache
	Tokens   services.TokenService

	// Notifications tracks emails sent after the response. Nil sends them
	// inline.
	Notifications *sync.WaitGroup

	// Now is used by services that compare against today; tests pin it.
	Now func() time.Time
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Storage == nil {
		d.Storage = storage.Disabled{}
	}
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Mailer == nil {
		d.Mailer = mail.LogMailer{}
	}
	if d.Payments == nil {
		d.Payments = payments.NewStripeGateway(d.Env.Stripe)
	}
	return &Handler{Deps: d}
}

func (h *Handler) notifier(c *gin.Context) services.Notifier {
	return services.Notifier{
		Mailer:       h.Mailer,
		AdminAddress: h.Env.Mail.AdminAddress,
		BCC:          h.Env.Mail.BCC,
		Timeout:      h.Env.NotifyTimeout,
		RequestID:    middleware.GetRequestID(c),
		Pending:      h.Notifications,
	}
}

func (h *Handler) bookingService(c *gin.Context) services.BookingService {
	return services.BookingService{
		Bookings:  h.Bookings,
		Numbers:   h.Numbers,
		Notifier:  h.notifier(c),
		Prefix:    h.Env.Numbering.BookingPrefix,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) offerService(c *gin.Context) services.OfferService {
	return services.OfferService{
		Offers:        h.Offers,
		Numbers:       h.Numbers,
		Bookings:      h.bookingService(c),
		Notifier:      h.notifier(c),
		Tokens:        h.Tokens,
		Prefix:        h.Env.Numbering.OfferPrefix,
		VATRate:       h.Env.Pricing.PassengerVATRate,
		ServiceVAT:    h.Env.Pricing.ServiceVATRate,
		PublicBaseURL: h.Env.PublicBaseURL,
		RequestID:     middleware.GetRequestID(c),
	}
}

func (h *Handler) capacityService(c *gin.Context) services.CapacityService {
	return services.CapacityService{
		Departures:      h.Departures,
		DefaultCapacity: h.Env.DefaultCapacity,
		RequestID:       middleware.GetRequestID(c),
	}
}

func (h *Handler) tripService(c *gin.Context) services.TripService {
	return services.TripService{
		Trips:      h.Trips,
		Departures: h.Departures,
		Cache:      h.Cache,
		CacheTTL:   h.Env.PublicTripsCacheTTL,
		RequestID:  middleware.GetRequestID(c),
	}
}

func (h *Handler) ticketService(c *gin.Context) services.TicketService {
	return services.TicketService{
		Tickets:    h.Tickets,
		Trips:      h.Trips,
		Capacity:   h.capacityService(c),
		Numbers:    h.Numbers,
		Payments:   h.Payments,
		Notifier:   h.notifier(c),
		Prefix:     h.Env.Numbering.TicketPrefix,
		PendingTTL: h.Env.PendingOrderTTL,
		RequestID:  middleware.GetRequestID(c),
		Now:        h.Now,
	}
}

func (h *Handler) docsService(c *gin.Context) services.DocsService {
	return services.DocsService{
		Offers:     h.Offers,
		Agreements: h.Agreements,
		Tickets:    h.Tickets,
		Trips:      h.Trips,
		RequestID:  middleware.GetRequestID(c),
		Now:        h.Now,
	}
}
