package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"
)

type BookingRepository struct {
	DB *intdb.Conn
}

const bookingColumns = `
	id, booking_number, status, COALESCE(CAST(source_offer_id AS CHAR(36)),''),
	COALESCE(customer_name,''), COALESCE(customer_email,''), COALESCE(customer_phone,''), COALESCE(customer_address,''),
	departure_place, destination, departure_date, COALESCE(departure_time,''), passengers,
	COALESCE(return_departure_place,''), COALESCE(return_destination,''), return_date, COALESCE(return_time,''),
	COALESCE(CAST(driver_id AS CHAR(36)),''), COALESCE(CAST(vehicle_id AS CHAR(36)),''), total_amount, COALESCE(notes,''),
	created_at, updated_at`

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b                models.Booking
		depDate, retDate sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.Status, &b.SourceOfferID,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.CustomerAddress,
		&b.DeparturePlace, &b.Destination, &depDate, &b.DepartureTime, &b.Passengers,
		&b.ReturnDeparturePlace, &b.ReturnDestination, &retDate, &b.ReturnTime,
		&b.DriverID, &b.VehicleID, &b.TotalAmount, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.DepartureDate = intdb.DateString(depDate)
	b.ReturnDate = intdb.DateString(retDate)
	return b, nil
}

// Insert writes one booking row. A duplicate booking_number surfaces as the
// driver's unique violation so the caller can draw a new number.
func (r BookingRepository) Insert(ctx context.Context, b *models.Booking) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO bookings (
			id, booking_number, status, source_offer_id,
			customer_name, customer_email, customer_phone, customer_address,
			departure_place, destination, departure_date, departure_time, passengers,
			return_departure_place, return_destination, return_date, return_time,
			driver_id, vehicle_id, total_amount, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.BookingNumber, b.Status, intdb.NullIfEmpty(b.SourceOfferID),
		intdb.NullIfEmpty(b.CustomerName), intdb.NullIfEmpty(b.CustomerEmail),
		intdb.NullIfEmpty(b.CustomerPhone), intdb.NullIfEmpty(b.CustomerAddress),
		b.DeparturePlace, b.Destination, dateArg(b.DepartureDate), intdb.NullIfEmpty(b.DepartureTime), b.Passengers,
		intdb.NullIfEmpty(b.ReturnDeparturePlace), intdb.NullIfEmpty(b.ReturnDestination),
		dateArg(b.ReturnDate), intdb.NullIfEmpty(b.ReturnTime),
		intdb.NullIfEmpty(b.DriverID), intdb.NullIfEmpty(b.VehicleID), nullDecimalArg(b.TotalAmount),
		intdb.NullIfEmpty(b.Notes), ts, ts,
	)
	if err != nil {
		return missingRef(err, "driver_id", "vehicle_id", "source_offer_id")
	}
	b.CreatedAt, b.UpdatedAt = ts, ts
	return nil
}

func (r BookingRepository) GetByID(ctx context.Context, id string) (models.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err != nil {
		return models.Booking{}, notFound("booking", err)
	}
	return b, nil
}

func (r BookingRepository) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.SourceOfferID != "" {
		where = append(where, "source_offer_id = ?")
		args = append(args, f.SourceOfferID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := intdb.Like(q)
		where = append(where, `(LOWER(booking_number) LIKE ? OR LOWER(COALESCE(customer_name,'')) LIKE ? OR LOWER(destination) LIKE ?)`)
		args = append(args, like, like, like)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, f.Offset)

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY departure_date DESC, booking_number DESC LIMIT ? OFFSET ?`,
		bookingColumns, strings.Join(where, " AND "))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update is a full-row update of everything except number and origin.
func (r BookingRepository) Update(ctx context.Context, b *models.Booking) error {
	ts := now()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE bookings SET
			status = ?, customer_name = ?, customer_email = ?, customer_phone = ?, customer_address = ?,
			departure_place = ?, destination = ?, departure_date = ?, departure_time = ?, passengers = ?,
			return_departure_place = ?, return_destination = ?, return_date = ?, return_time = ?,
			driver_id = ?, vehicle_id = ?, total_amount = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		b.Status, intdb.NullIfEmpty(b.CustomerName), intdb.NullIfEmpty(b.CustomerEmail),
		intdb.NullIfEmpty(b.CustomerPhone), intdb.NullIfEmpty(b.CustomerAddress),
		b.DeparturePlace, b.Destination, dateArg(b.DepartureDate), intdb.NullIfEmpty(b.DepartureTime), b.Passengers,
		intdb.NullIfEmpty(b.ReturnDeparturePlace), intdb.NullIfEmpty(b.ReturnDestination),
		dateArg(b.ReturnDate), intdb.NullIfEmpty(b.ReturnTime),
		intdb.NullIfEmpty(b.DriverID), intdb.NullIfEmpty(b.VehicleID), nullDecimalArg(b.TotalAmount),
		intdb.NullIfEmpty(b.Notes), ts, b.ID,
	)
	if err != nil {
		return missingRef(err, "driver_id", "vehicle_id")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.UpdatedAt = ts
	return nil
}

func (r BookingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// Schedule lists bookings departing in [from, to] with driver and vehicle
// names resolved.
func (r BookingRepository) Schedule(ctx context.Context, from, to string) ([]models.ScheduleEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT
			b.id, b.booking_number, b.status, COALESCE(b.customer_name,''),
			b.departure_place, b.destination, b.departure_date, COALESCE(b.departure_time,''),
			b.return_date, COALESCE(b.return_time,''), b.passengers,
			COALESCE(CAST(b.driver_id AS CHAR(36)),''), COALESCE(d.name,''),
			COALESCE(CAST(b.vehicle_id AS CHAR(36)),''), COALESCE(v.registration,''), COALESCE(v.name,'')
		FROM bookings b
		LEFT JOIN drivers d ON d.id = b.driver_id
		LEFT JOIN vehicles v ON v.id = b.vehicle_id
		WHERE b.departure_date >= ? AND b.departure_date <= ? AND b.status <> ?
		ORDER BY b.departure_date ASC, b.departure_time ASC, b.booking_number ASC`,
		dateArg(from), dateArg(to), string(domain.BookingCancelled),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ScheduleEntry{}
	for rows.Next() {
		var (
			e                models.ScheduleEntry
			depDate, retDate sql.NullTime
		)
		if err := rows.Scan(
			&e.BookingID, &e.BookingNumber, &e.Status, &e.CustomerName,
			&e.DeparturePlace, &e.Destination, &depDate, &e.DepartureTime,
			&retDate, &e.ReturnTime, &e.Passengers,
			&e.DriverID, &e.DriverName,
			&e.VehicleID, &e.VehicleReg, &e.VehicleName,
		); err != nil {
			return nil, err
		}
		e.DepartureDate = intdb.DateString(depDate)
		e.ReturnDate = intdb.DateString(retDate)
		out = append(out, e)
	}
	return out, rows.Err()
}
