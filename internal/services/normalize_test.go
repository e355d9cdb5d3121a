package services

import (
	"encoding/json"
	"testing"

	"charter/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIntAcceptsNumbersAndStrings(t *testing.T) {
	cases := map[string]int{
		`15`:     15,
		`"15"`:   15,
		`" 7 "`:  7,
		`12.0`:   12,
		`null`:   0,
		`""`:     0,
		`"30.0"`: 30,
	}
	for raw, want := range cases {
		var n FlexInt
		require.NoError(t, json.Unmarshal([]byte(raw), &n), raw)
		assert.Equal(t, FlexInt(want), n, raw)
	}

	for _, raw := range []string{`"femton"`, `1.5`, `"2,5"`} {
		var n FlexInt
		assert.Error(t, json.Unmarshal([]byte(raw), &n), raw)
	}
}

func TestJourneyNormalize(t *testing.T) {
	in := JourneyInput{
		DeparturePlace: "  Kristianstad   C ",
		Destination:    "Malmö",
		DepartureDate:  "2025-06-01",
		DepartureTime:  "8:05",
		Passengers:     12,
		ReturnDate:     "2025-06-02",
		ReturnTime:     "17:00",
	}
	out, err := in.normalize()
	require.NoError(t, err)
	assert.Equal(t, "Kristianstad C", out.DeparturePlace)
	assert.Equal(t, "08:05", out.DepartureTime)
	assert.Equal(t, "Malmö", out.ReturnDeparturePlace)
	assert.Equal(t, "Kristianstad C", out.ReturnDestination)

	in.ReturnDeparturePlace = "Lund"
	out, err = in.normalize()
	require.NoError(t, err)
	assert.Equal(t, "Lund", out.ReturnDeparturePlace)
}

func TestJourneyNormalizeRejects(t *testing.T) {
	base := JourneyInput{DeparturePlace: "A", Destination: "B", DepartureDate: "2025-06-10", Passengers: 1}
	cases := map[string]func(*JourneyInput){
		"no passengers":          func(in *JourneyInput) { in.Passengers = 0 },
		"bad time":               func(in *JourneyInput) { in.DepartureTime = "8.5" },
		"return date only":       func(in *JourneyInput) { in.ReturnDate = "2025-06-11" },
		"return time only":       func(in *JourneyInput) { in.ReturnTime = "18:00" },
		"return places only":     func(in *JourneyInput) { in.ReturnDestination = "C" },
		"return before outbound": func(in *JourneyInput) { in.ReturnDate, in.ReturnTime = "2025-06-09", "10:00" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := in.normalize()
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestContactNormalize(t *testing.T) {
	out, err := ContactInput{CustomerName: " Anna  Berg ", CustomerEmail: " Anna@Example.SE "}.normalize()
	require.NoError(t, err)
	assert.Equal(t, "Anna Berg", out.CustomerName)
	assert.Equal(t, "anna@example.se", out.CustomerEmail)

	_, err = ContactInput{CustomerEmail: "anna@"}.normalize()
	assert.True(t, domain.IsValidation(err))
}
