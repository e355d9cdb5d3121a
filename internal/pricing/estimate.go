package pricing

import (
	"charter/internal/domain"

	"github.com/shopspring/decimal"
)

// Profile is the rate card used for quick estimates.
type Profile struct {
	BaseFee decimal.Decimal
	PerKm   decimal.Decimal
	PerHour decimal.Decimal
	VATRate decimal.Decimal
}

// Estimate prices a job from a rate card. The card amounts are VAT-inclusive;
// a round trip doubles the distance and time component.
func Estimate(p Profile, km, hours decimal.Decimal, roundTrip bool) (Breakdown, error) {
	if km.IsNegative() {
		return Breakdown{}, domain.ValidationError{Field: "km", Msg: "must be >= 0"}
	}
	if hours.IsNegative() {
		return Breakdown{}, domain.ValidationError{Field: "hours", Msg: "must be >= 0"}
	}
	variable := p.PerKm.Mul(km).Add(p.PerHour.Mul(hours))
	if roundTrip {
		variable = variable.Mul(decimal.NewFromInt(2))
	}
	total := p.BaseFee.Add(variable).Round(0)
	return FromTotal(total, p.VATRate), nil
}
