package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a confirmed charter job. It is independent of the offer it may
// have been copied from.
type Booking struct {
	ID            string `json:"id"`
	BookingNumber string `json:"booking_number"`
	Status        string `json:"status"`
	SourceOfferID string `json:"source_offer_id,omitempty"`

	CustomerName    string `json:"customer_name,omitempty"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`

	DeparturePlace string `json:"departure_place"`
	Destination    string `json:"destination"`
	DepartureDate  string `json:"departure_date"`
	DepartureTime  string `json:"departure_time,omitempty"`
	Passengers     int    `json:"passengers"`

	ReturnDeparturePlace string `json:"return_departure_place,omitempty"`
	ReturnDestination    string `json:"return_destination,omitempty"`
	ReturnDate           string `json:"return_date,omitempty"`
	ReturnTime           string `json:"return_time,omitempty"`

	DriverID    string              `json:"driver_id,omitempty"`
	VehicleID   string              `json:"vehicle_id,omitempty"`
	TotalAmount decimal.NullDecimal `json:"total_amount"`
	Notes       string              `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BookingFilter struct {
	Status        string
	Query         string
	SourceOfferID string
	Limit         int
	Offset        int
}

// ScheduleEntry is a booking row joined with driver and vehicle names.
type ScheduleEntry struct {
	BookingID      string `json:"booking_id"`
	BookingNumber  string `json:"booking_number"`
	Status         string `json:"status"`
	CustomerName   string `json:"customer_name,omitempty"`
	DeparturePlace string `json:"departure_place"`
	Destination    string `json:"destination"`
	DepartureDate  string `json:"departure_date"`
	DepartureTime  string `json:"departure_time,omitempty"`
	ReturnDate     string `json:"return_date,omitempty"`
	ReturnTime     string `json:"return_time,omitempty"`
	Passengers     int    `json:"passengers"`
	DriverID       string `json:"driver_id,omitempty"`
	DriverName     string `json:"driver_name,omitempty"`
	VehicleID      string `json:"vehicle_id,omitempty"`
	VehicleReg     string `json:"vehicle_registration,omitempty"`
	VehicleName    string `json:"vehicle_name,omitempty"`
}
