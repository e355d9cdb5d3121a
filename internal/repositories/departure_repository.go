package repositories

import (
	"context"
	"database/sql"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"

	"github.com/google/uuid"
)

// DepartureRepository owns trip_departures, the source of truth for when a
// trip runs and how many seats are taken.
type DepartureRepository struct {
	DB *intdb.Conn
}

const departureColumns = `id, trip_id, depart_date, COALESCE(depart_time,''), COALESCE(line,''), capacity_total, seats_reserved`

func scanDeparture(row rowScanner) (models.TripDeparture, error) {
	var (
		d        models.TripDeparture
		date     sql.NullTime
		capacity sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.TripID, &date, &d.DepartTime, &d.Line, &capacity, &d.SeatsReserved); err != nil {
		return models.TripDeparture{}, err
	}
	d.DepartDate = intdb.DateString(date)
	d.CapacityTotal = nullIntPtr(capacity)
	return d, nil
}

func (r DepartureRepository) ListByTrip(ctx context.Context, tripID string) ([]models.TripDeparture, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+departureColumns+` FROM trip_departures WHERE trip_id = ? ORDER BY depart_date ASC, depart_time ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TripDeparture{}
	for rows.Next() {
		d, err := scanDeparture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get looks a departure up by trip and calendar date.
func (r DepartureRepository) Get(ctx context.Context, tripID, date string) (models.TripDeparture, error) {
	d, err := scanDeparture(r.DB.QueryRowContext(ctx,
		`SELECT `+departureColumns+` FROM trip_departures WHERE trip_id = ? AND depart_date = ?`,
		tripID, dateArg(date)))
	if err != nil {
		return models.TripDeparture{}, notFound("departure", err)
	}
	return d, nil
}

func (r DepartureRepository) GetByID(ctx context.Context, tripID, id string) (models.TripDeparture, error) {
	d, err := scanDeparture(r.DB.QueryRowContext(ctx,
		`SELECT `+departureColumns+` FROM trip_departures WHERE id = ? AND trip_id = ?`, id, tripID))
	if err != nil {
		return models.TripDeparture{}, notFound("departure", err)
	}
	return d, nil
}

func (r DepartureRepository) Insert(ctx context.Context, d *models.TripDeparture) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO trip_departures (id, trip_id, depart_date, depart_time, line, capacity_total, seats_reserved)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.TripID, dateArg(d.DepartDate), intdb.NullIfEmpty(d.DepartTime), intdb.NullIfEmpty(d.Line),
		nullIntArg(d.CapacityTotal), d.SeatsReserved,
	)
	if intdb.IsUniqueViolation(err) {
		return domain.ConflictError{Resource: "departure", Msg: "trip already departs on " + d.DepartDate, Err: err}
	}
	return missingRef(err, "trip_id")
}

// Update changes time, line and capacity. A capacity below the seats already
// reserved is refused by the WHERE clause.
func (r DepartureRepository) Update(ctx context.Context, d *models.TripDeparture) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE trip_departures SET depart_time = ?, line = ?, capacity_total = ?
		WHERE id = ? AND trip_id = ? AND seats_reserved <= COALESCE(?, seats_reserved)`,
		intdb.NullIfEmpty(d.DepartTime), intdb.NullIfEmpty(d.Line), nullIntArg(d.CapacityTotal),
		d.ID, d.TripID, nullIntArg(d.CapacityTotal),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, gerr := r.GetByID(ctx, d.TripID, d.ID); gerr != nil {
			return gerr
		}
		return domain.ConflictError{Resource: "departure", Msg: "capacity below seats already reserved"}
	}
	return nil
}

func (r DepartureRepository) Delete(ctx context.Context, tripID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM trip_departures WHERE id = ? AND trip_id = ?`, id, tripID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "departure"}
	}
	return nil
}

// Reserve adds n seats to a departure only when that many are still free.
// When no row exists yet one is created with defaultCap as the implied
// capacity; the unique key on (trip_id, depart_date) settles concurrent
// creators.
func (r DepartureRepository) Reserve(ctx context.Context, tripID, date string, n, defaultCap int) error {
	if n <= 0 {
		return domain.ValidationError{Field: "quantity", Msg: "must be > 0"}
	}
	full := domain.ConflictError{Resource: "departure", Msg: "not enough seats left"}

	for attempt := 0; attempt < 2; attempt++ {
		res, err := r.DB.ExecContext(ctx, `
			UPDATE trip_departures SET seats_reserved = seats_reserved + ?
			WHERE trip_id = ? AND depart_date = ? AND COALESCE(capacity_total, ?) - seats_reserved >= ?`,
			n, tripID, dateArg(date), defaultCap, n,
		)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 1 {
			return nil
		}

		var count int
		if err := r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM trip_departures WHERE trip_id = ? AND depart_date = ?`,
			tripID, dateArg(date),
		).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return full
		}
		if n > defaultCap {
			return full
		}

		_, err = r.DB.ExecContext(ctx,
			`INSERT INTO trip_departures (id, trip_id, depart_date, seats_reserved) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), tripID, dateArg(date), n,
		)
		if err == nil {
			return nil
		}
		if !intdb.IsUniqueViolation(err) {
			return err
		}
	}
	return full
}
