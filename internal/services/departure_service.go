package services

import (
	"context"
	"fmt"

	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/utils"
)

const defaultCapacity = 50

type DepartureStore interface {
	ListByTrip(ctx context.Context, tripID string) ([]models.TripDeparture, error)
	Get(ctx context.Context, tripID, date string) (models.TripDeparture, error)
	GetByID(ctx context.Context, tripID, id string) (models.TripDeparture, error)
	Insert(ctx context.Context, d *models.TripDeparture) error
	Update(ctx context.Context, d *models.TripDeparture) error
	Delete(ctx context.Context, tripID, id string) error
	Reserve(ctx context.Context, tripID, date string, n, defaultCap int) error
}

// CapacityService answers "how many seats are left" and takes seats. A
// departure without its own capacity uses DefaultCapacity.
type CapacityService struct {
	Departures      DepartureStore
	DefaultCapacity int
	RequestID       string
}

func (s CapacityService) defaultCap() int {
	if s.DefaultCapacity > 0 {
		return s.DefaultCapacity
	}
	return defaultCapacity
}

// Lookup reports availability for trip and date. A date without a row has
// nothing reserved yet.
func (s CapacityService) Lookup(ctx context.Context, tripID, date string) (models.Availability, error) {
	if _, err := utils.ParseDate(date); err != nil {
		return models.Availability{}, domain.ValidationError{Field: "date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	d, err := s.Departures.Get(ctx, tripID, date)
	switch {
	case domain.IsNotFound(err):
		return availability(tripID, date, nil, 0, s.defaultCap()), nil
	case err != nil:
		return models.Availability{}, err
	}
	return availability(tripID, date, d.CapacityTotal, d.SeatsReserved, s.defaultCap()), nil
}

// Reserve takes n seats or fails with a ConflictError when fewer are left.
func (s CapacityService) Reserve(ctx context.Context, tripID, date string, n int) error {
	if n <= 0 {
		return domain.ValidationError{Field: "quantity", Msg: "must be greater than 0"}
	}
	if err := s.Departures.Reserve(ctx, tripID, date, n, s.defaultCap()); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "capacity", "reserve", fmt.Sprintf("trip_id=%s date=%s seats=%d", tripID, date, n))
	return nil
}

func availability(tripID, date string, capacity *int, reserved, def int) models.Availability {
	total := def
	if capacity != nil {
		total = *capacity
	}
	left := total - reserved
	status := domain.DepartureAvailable
	if left <= 0 {
		status = domain.DepartureFull
		left = 0
	}
	return models.Availability{
		TripID:        tripID,
		DepartDate:    date,
		CapacityTotal: total,
		SeatsReserved: reserved,
		SeatsLeft:     left,
		Status:        string(status),
	}
}
