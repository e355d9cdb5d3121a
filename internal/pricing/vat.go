package pricing

import (
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Breakdown splits a VAT-inclusive amount.
type Breakdown struct {
	ExVAT decimal.Decimal `json:"ex_vat"`
	VAT   decimal.Decimal `json:"vat"`
	Total decimal.Decimal `json:"total"`
}

// FromTotal derives VAT from a VAT-inclusive total:
// vat = round(total - total/(1+rate)), ex = total - vat. Whole kronor,
// half away from zero.
func FromTotal(total, rate decimal.Decimal) Breakdown {
	net := total.Div(one.Add(rate))
	vat := total.Sub(net).Round(0)
	return Breakdown{ExVAT: total.Sub(vat), VAT: vat, Total: total}
}

// FromNet adds VAT on top of a net amount, rounded to whole kronor.
func FromNet(net, rate decimal.Decimal) Breakdown {
	total := net.Mul(one.Add(rate)).Round(0)
	return FromTotal(total, rate)
}

// Quote is the per-leg and aggregate breakdown of an offer.
type Quote struct {
	Rate     decimal.Decimal `json:"vat_rate"`
	Outbound Breakdown       `json:"outbound"`
	Return   *Breakdown      `json:"return,omitempty"`
	Total    Breakdown       `json:"total"`
}

// Legs breaks down the outbound total and, when given, the return total.
// The aggregate is the sum of the legs so it always reconciles.
func Legs(outbound decimal.Decimal, ret *decimal.Decimal, rate decimal.Decimal) Quote {
	return legs(outbound, ret, rate, FromTotal)
}

// NetLegs is Legs for leg prices given before VAT.
func NetLegs(outbound decimal.Decimal, ret *decimal.Decimal, rate decimal.Decimal) Quote {
	return legs(outbound, ret, rate, FromNet)
}

func legs(outbound decimal.Decimal, ret *decimal.Decimal, rate decimal.Decimal, split func(amount, rate decimal.Decimal) Breakdown) Quote {
	q := Quote{Rate: rate, Outbound: split(outbound, rate)}
	q.Total = q.Outbound
	if ret != nil {
		r := split(*ret, rate)
		q.Return = &r
		q.Total = Breakdown{
			ExVAT: q.Outbound.ExVAT.Add(r.ExVAT),
			VAT:   q.Outbound.VAT.Add(r.VAT),
			Total: q.Outbound.Total.Add(r.Total),
		}
	}
	return q
}
