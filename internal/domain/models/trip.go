package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trip is a publishable catalog entry. DeparturesCache mirrors the
// trip_departures rows and is rebuilt from them.
type Trip struct {
	ID              string              `json:"id"`
	Slug            string              `json:"slug"`
	Title           string              `json:"title"`
	Image           string              `json:"image,omitempty"`
	PriceFrom       decimal.NullDecimal `json:"price_from"`
	Ribbon          string              `json:"ribbon,omitempty"`
	Badge           string              `json:"badge,omitempty"`
	Categories      []string            `json:"categories"`
	Country         string              `json:"country,omitempty"`
	Year            int                 `json:"year,omitempty"`
	Published       bool                `json:"published"`
	DeparturesCache []CachedDeparture   `json:"departures"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// CachedDeparture is one entry in trips.departures_cache.
type CachedDeparture struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
	Line string `json:"line,omitempty"`
}

type TripDeparture struct {
	ID            string `json:"id"`
	TripID        string `json:"trip_id"`
	DepartDate    string `json:"depart_date"`
	DepartTime    string `json:"depart_time,omitempty"`
	Line          string `json:"line,omitempty"`
	CapacityTotal *int   `json:"capacity_total"`
	SeatsReserved int    `json:"seats_reserved"`
}

// Availability is the capacity view of one departure.
type Availability struct {
	TripID        string `json:"trip_id"`
	DepartDate    string `json:"depart_date"`
	CapacityTotal int    `json:"capacity_total"`
	SeatsReserved int    `json:"seats_reserved"`
	SeatsLeft     int    `json:"seats_left"`
	Status        string `json:"status"`
}

// PublicTrip is one entry of the widget feed.
type PublicTrip struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Image      string              `json:"image,omitempty"`
	PriceFrom  decimal.NullDecimal `json:"price_from"`
	NextDate   string              `json:"next_date,omitempty"`
	Ribbon     string              `json:"ribbon,omitempty"`
	Badge      string              `json:"badge,omitempty"`
	Categories []string            `json:"categories"`
	Country    string              `json:"country,omitempty"`
	Year       int                 `json:"year,omitempty"`
}
