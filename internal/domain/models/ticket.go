package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketBooking is a seat order placed through the public widget.
type TicketBooking struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	TripID            string          `json:"trip_id"`
	DepartDate        string          `json:"depart_date"`
	Quantity          int             `json:"quantity"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	CustomerPhone     string          `json:"customer_phone,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
