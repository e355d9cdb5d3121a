package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTotalReconciles(t *testing.T) {
	rates := []decimal.Decimal{decimal.RequireFromString("0.06"), decimal.RequireFromString("0.25")}
	for _, rate := range rates {
		for total := int64(0); total <= 50000; total += 37 {
			tot := decimal.NewFromInt(total)
			b := FromTotal(tot, rate)

			want := tot.Sub(tot.Div(one.Add(rate))).Round(0)
			if !b.VAT.Equal(want) {
				t.Fatalf("rate %s total %d: vat %s, want %s", rate, total, b.VAT, want)
			}
			diff := b.ExVAT.Add(b.VAT).Sub(tot).Abs()
			if diff.GreaterThan(one) {
				t.Fatalf("rate %s total %d: ex %s + vat %s != total", rate, total, b.ExVAT, b.VAT)
			}
		}
	}
}

func TestFromTotalKnownValues(t *testing.T) {
	b := FromTotal(decimal.NewFromInt(10600), decimal.RequireFromString("0.06"))
	assert.True(t, b.VAT.Equal(decimal.NewFromInt(600)), "vat %s", b.VAT)
	assert.True(t, b.ExVAT.Equal(decimal.NewFromInt(10000)), "ex %s", b.ExVAT)

	b = FromTotal(decimal.NewFromInt(1250), decimal.RequireFromString("0.25"))
	assert.True(t, b.VAT.Equal(decimal.NewFromInt(250)))
}

func TestFromNet(t *testing.T) {
	b := FromNet(decimal.NewFromInt(10000), decimal.RequireFromString("0.06"))
	assert.True(t, b.Total.Equal(decimal.NewFromInt(10600)))
	assert.True(t, b.VAT.Equal(decimal.NewFromInt(600)))
}

func TestLegsAggregate(t *testing.T) {
	rate := decimal.RequireFromString("0.06")
	ret := decimal.NewFromInt(5300)
	q := Legs(decimal.NewFromInt(10600), &ret, rate)

	require.NotNil(t, q.Return)
	assert.True(t, q.Total.Total.Equal(decimal.NewFromInt(15900)))
	assert.True(t, q.Total.VAT.Equal(q.Outbound.VAT.Add(q.Return.VAT)))
	assert.True(t, q.Total.ExVAT.Add(q.Total.VAT).Equal(q.Total.Total))

	single := Legs(decimal.NewFromInt(10600), nil, rate)
	assert.Nil(t, single.Return)
	assert.True(t, single.Total.Total.Equal(decimal.NewFromInt(10600)))
}

func TestEstimate(t *testing.T) {
	p := Profile{
		BaseFee: decimal.NewFromInt(1500),
		PerKm:   decimal.NewFromInt(25),
		PerHour: decimal.NewFromInt(400),
		VATRate: decimal.RequireFromString("0.06"),
	}
	b, err := Estimate(p, decimal.NewFromInt(100), decimal.NewFromInt(2), false)
	require.NoError(t, err)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(4800)), "total %s", b.Total)

	b, err = Estimate(p, decimal.NewFromInt(100), decimal.NewFromInt(2), true)
	require.NoError(t, err)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(8100)), "total %s", b.Total)

	_, err = Estimate(p, decimal.NewFromInt(-1), decimal.Zero, false)
	assert.Error(t, err)
}

func TestNetLegsAddsVATPerLeg(t *testing.T) {
	rate := decimal.RequireFromString("0.25")
	ret := decimal.NewFromInt(4000)
	q := NetLegs(decimal.NewFromInt(10000), &ret, rate)

	require.NotNil(t, q.Return)
	assert.True(t, q.Outbound.Total.Equal(decimal.NewFromInt(12500)))
	assert.True(t, q.Return.Total.Equal(decimal.NewFromInt(5000)))
	assert.True(t, q.Total.VAT.Equal(decimal.NewFromInt(3500)))
	assert.True(t, q.Total.ExVAT.Equal(decimal.NewFromInt(14000)))
}
