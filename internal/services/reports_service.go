package services

import (
	"context"

	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/utils"
)

const maxScheduleDays = 366

// ScheduleFilter is the date window of the driver schedule.
type ScheduleFilter struct {
	From string
	To   string
}

// ReportsService serves read models over bookings for the admin and driver
// portal.
type ReportsService struct {
	Bookings BookingStore
}

// Schedule lists bookings departing in [From, To] with driver and vehicle
// names. From defaults to today and To to From plus a week.
func (s ReportsService) Schedule(ctx context.Context, f ScheduleFilter) ([]models.ScheduleEntry, error) {
	from := utils.DefaultIfEmpty(f.From, utils.Today())
	fromT, err := utils.ParseDate(from)
	if err != nil {
		return nil, domain.ValidationError{Field: "from", Msg: "expected YYYY-MM-DD", Err: err}
	}
	to := utils.DefaultIfEmpty(f.To, utils.FormatDate(fromT.AddDate(0, 0, 7)))
	toT, err := utils.ParseDate(to)
	if err != nil {
		return nil, domain.ValidationError{Field: "to", Msg: "expected YYYY-MM-DD", Err: err}
	}
	if toT.Before(fromT) {
		return nil, domain.ValidationError{Field: "to", Msg: "must not be before from"}
	}
	if toT.Sub(fromT).Hours()/24 > maxScheduleDays {
		return nil, domain.ValidationError{Field: "to", Msg: "range is limited to one year"}
	}
	return s.Bookings.Schedule(ctx, from, to)
}
