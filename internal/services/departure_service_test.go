package services

import (
	"context"
	"testing"

	"charter/internal/domain"
	"charter/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailability(t *testing.T) {
	full := availability("t1", "2025-07-01", intPtr(50), 50, 50)
	assert.Equal(t, string(domain.DepartureFull), full.Status)
	assert.Equal(t, 0, full.SeatsLeft)

	open := availability("t1", "2025-07-01", intPtr(50), 0, 50)
	assert.Equal(t, string(domain.DepartureAvailable), open.Status)
	assert.Equal(t, 50, open.SeatsLeft)

	// Capacity lowered below what was already sold.
	over := availability("t1", "2025-07-01", intPtr(10), 12, 50)
	assert.Equal(t, string(domain.DepartureFull), over.Status)
	assert.Equal(t, 0, over.SeatsLeft)

	def := availability("t1", "2025-07-01", nil, 5, 30)
	assert.Equal(t, 30, def.CapacityTotal)
	assert.Equal(t, 25, def.SeatsLeft)
}

func TestCapacityLookup(t *testing.T) {
	deps := &memDepartures{rows: []models.TripDeparture{
		{ID: "d1", TripID: "t1", DepartDate: "2025-07-01", CapacityTotal: intPtr(50), SeatsReserved: 50},
	}}
	svc := CapacityService{Departures: deps}
	ctx := context.Background()

	av, err := svc.Lookup(ctx, "t1", "2025-07-01")
	require.NoError(t, err)
	assert.Equal(t, "full", av.Status)

	av, err = svc.Lookup(ctx, "t1", "2025-07-02")
	require.NoError(t, err)
	assert.Equal(t, "available", av.Status)
	assert.Equal(t, defaultCapacity, av.SeatsLeft)

	_, err = svc.Lookup(ctx, "t1", "1 juli")
	assert.True(t, domain.IsValidation(err))
}

func TestCapacityReserve(t *testing.T) {
	deps := &memDepartures{rows: []models.TripDeparture{
		{ID: "d1", TripID: "t1", DepartDate: "2025-07-01", CapacityTotal: intPtr(10), SeatsReserved: 8},
	}}
	svc := CapacityService{Departures: deps, DefaultCapacity: 40}
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, "t1", "2025-07-01", 2))
	assert.Equal(t, 10, deps.rows[0].SeatsReserved)

	err := svc.Reserve(ctx, "t1", "2025-07-01", 1)
	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, 10, deps.rows[0].SeatsReserved)

	assert.True(t, domain.IsValidation(svc.Reserve(ctx, "t1", "2025-07-01", 0)))
}
