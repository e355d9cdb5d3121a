package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssociationAgreement struct {
	ID              string          `json:"id"`
	AssociationName string          `json:"association_name"`
	ContactPerson   string          `json:"contact_person,omitempty"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	ValidFrom       string          `json:"valid_from,omitempty"`
	ValidTo         string          `json:"valid_to,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Terms           string          `json:"terms,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PriceProfile struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BaseFee   decimal.Decimal `json:"base_fee"`
	PerKm     decimal.Decimal `json:"per_km"`
	PerHour   decimal.Decimal `json:"per_hour"`
	VATRate   decimal.Decimal `json:"vat_rate"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
