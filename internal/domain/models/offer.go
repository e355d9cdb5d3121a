package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a customer quote request and, once answered, its priced proposal.
type Offer struct {
	ID          string `json:"id"`
	OfferNumber string `json:"offer_number"`
	Status      string `json:"status"`

	CustomerName      string `json:"customer_name,omitempty"`
	CustomerReference string `json:"customer_reference,omitempty"`
	CustomerEmail     string `json:"customer_email,omitempty"`
	CustomerPhone     string `json:"customer_phone,omitempty"`
	CustomerAddress   string `json:"customer_address,omitempty"`

	DeparturePlace string `json:"departure_place"`
	Destination    string `json:"destination"`
	DepartureDate  string `json:"departure_date"`
	DepartureTime  string `json:"departure_time,omitempty"`
	Passengers     int    `json:"passengers"`

	ReturnDeparturePlace string `json:"return_departure_place,omitempty"`
	ReturnDestination    string `json:"return_destination,omitempty"`
	ReturnDate           string `json:"return_date,omitempty"`
	ReturnTime           string `json:"return_time,omitempty"`

	VATRate       decimal.NullDecimal `json:"vat_rate"`
	OutboundExVAT decimal.NullDecimal `json:"outbound_ex_vat"`
	OutboundVAT   decimal.NullDecimal `json:"outbound_vat"`
	OutboundTotal decimal.NullDecimal `json:"outbound_total"`
	ReturnExVAT   decimal.NullDecimal `json:"return_ex_vat"`
	ReturnVAT     decimal.NullDecimal `json:"return_vat"`
	ReturnTotal   decimal.NullDecimal `json:"return_total"`
	AmountExVAT   decimal.NullDecimal `json:"amount_ex_vat"`
	VATAmount     decimal.NullDecimal `json:"vat_amount"`
	TotalAmount   decimal.NullDecimal `json:"total_amount"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoundTrip is true when the return leg group is filled in.
func (o Offer) RoundTrip() bool {
	return o.ReturnDate != ""
}

// OfferFilter narrows admin listings.
type OfferFilter struct {
	Status string
	Query  string
	Limit  int
	Offset int
}
