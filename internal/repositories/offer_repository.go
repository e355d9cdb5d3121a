package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/pricing"
)

type OfferRepository struct {
	DB *intdb.Conn
}

const offerColumns = `
	id, offer_number, status,
	COALESCE(customer_name,''), COALESCE(customer_reference,''), COALESCE(customer_email,''),
	COALESCE(customer_phone,''), COALESCE(customer_address,''),
	departure_place, destination, departure_date, COALESCE(departure_time,''), passengers,
	COALESCE(return_departure_place,''), COALESCE(return_destination,''), return_date, COALESCE(return_time,''),
	vat_rate, outbound_ex_vat, outbound_vat, outbound_total,
	return_ex_vat, return_vat, return_total,
	amount_ex_vat, vat_amount, total_amount,
	COALESCE(notes,''), created_at, updated_at`

func scanOffer(row rowScanner) (models.Offer, error) {
	var (
		o                models.Offer
		depDate, retDate sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.OfferNumber, &o.Status,
		&o.CustomerName, &o.CustomerReference, &o.CustomerEmail,
		&o.CustomerPhone, &o.CustomerAddress,
		&o.DeparturePlace, &o.Destination, &depDate, &o.DepartureTime, &o.Passengers,
		&o.ReturnDeparturePlace, &o.ReturnDestination, &retDate, &o.ReturnTime,
		&o.VATRate, &o.OutboundExVAT, &o.OutboundVAT, &o.OutboundTotal,
		&o.ReturnExVAT, &o.ReturnVAT, &o.ReturnTotal,
		&o.AmountExVAT, &o.VATAmount, &o.TotalAmount,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return models.Offer{}, err
	}
	o.DepartureDate = intdb.DateString(depDate)
	o.ReturnDate = intdb.DateString(retDate)
	return o, nil
}

// Insert stores a new offer. ID, number and status must be set by the caller.
func (r OfferRepository) Insert(ctx context.Context, o *models.Offer) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO offers (
			id, offer_number, status,
			customer_name, customer_reference, customer_email, customer_phone, customer_address,
			departure_place, destination, departure_date, departure_time, passengers,
			return_departure_place, return_destination, return_date, return_time,
			notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OfferNumber, o.Status,
		intdb.NullIfEmpty(o.CustomerName), intdb.NullIfEmpty(o.CustomerReference),
		intdb.NullIfEmpty(o.CustomerEmail), intdb.NullIfEmpty(o.CustomerPhone),
		intdb.NullIfEmpty(o.CustomerAddress),
		o.DeparturePlace, o.Destination, dateArg(o.DepartureDate), intdb.NullIfEmpty(o.DepartureTime), o.Passengers,
		intdb.NullIfEmpty(o.ReturnDeparturePlace), intdb.NullIfEmpty(o.ReturnDestination),
		dateArg(o.ReturnDate), intdb.NullIfEmpty(o.ReturnTime),
		intdb.NullIfEmpty(o.Notes), ts, ts,
	)
	if err != nil {
		return err
	}
	o.CreatedAt, o.UpdatedAt = ts, ts
	return nil
}

func (r OfferRepository) GetByID(ctx context.Context, id string) (models.Offer, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = ?`, id)
	o, err := scanOffer(row)
	if err != nil {
		return models.Offer{}, notFound("offer", err)
	}
	return o, nil
}

func (r OfferRepository) List(ctx context.Context, f models.OfferFilter) ([]models.Offer, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := intdb.Like(q)
		where = append(where, `(LOWER(offer_number) LIKE ? OR LOWER(COALESCE(customer_name,'')) LIKE ?
			OR LOWER(COALESCE(customer_email,'')) LIKE ? OR LOWER(destination) LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, f.Offset)

	query := fmt.Sprintf(`SELECT %s FROM offers WHERE %s ORDER BY created_at DESC, offer_number DESC LIMIT ? OFFSET ?`,
		offerColumns, strings.Join(where, " AND "))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update rewrites the editable customer and trip fields. Status and pricing
// only change through Transition.
func (r OfferRepository) Update(ctx context.Context, o *models.Offer) error {
	ts := now()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE offers SET
			customer_name = ?, customer_reference = ?, customer_email = ?, customer_phone = ?, customer_address = ?,
			departure_place = ?, destination = ?, departure_date = ?, departure_time = ?, passengers = ?,
			return_departure_place = ?, return_destination = ?, return_date = ?, return_time = ?,
			notes = ?, updated_at = ?
		WHERE id = ?`,
		intdb.NullIfEmpty(o.CustomerName), intdb.NullIfEmpty(o.CustomerReference),
		intdb.NullIfEmpty(o.CustomerEmail), intdb.NullIfEmpty(o.CustomerPhone),
		intdb.NullIfEmpty(o.CustomerAddress),
		o.DeparturePlace, o.Destination, dateArg(o.DepartureDate), intdb.NullIfEmpty(o.DepartureTime), o.Passengers,
		intdb.NullIfEmpty(o.ReturnDeparturePlace), intdb.NullIfEmpty(o.ReturnDestination),
		dateArg(o.ReturnDate), intdb.NullIfEmpty(o.ReturnTime),
		intdb.NullIfEmpty(o.Notes), ts, o.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "offer"}
	}
	o.UpdatedAt = ts
	return nil
}

// Transition moves an offer from one status to another with a guarded write.
// It reports false when the row was no longer in status from. A non-nil quote
// is stored in the same statement.
func (r OfferRepository) Transition(ctx context.Context, id string, from, to domain.OfferStatus, q *pricing.Quote) (bool, error) {
	set := []string{"status = ?", "updated_at = ?"}
	args := []any{string(to), now()}
	if q != nil {
		set = append(set,
			"vat_rate = ?", "outbound_ex_vat = ?", "outbound_vat = ?", "outbound_total = ?",
			"return_ex_vat = ?", "return_vat = ?", "return_total = ?",
			"amount_ex_vat = ?", "vat_amount = ?", "total_amount = ?")
		args = append(args, q.Rate.String(),
			q.Outbound.ExVAT.String(), q.Outbound.VAT.String(), q.Outbound.Total.String())
		if q.Return != nil {
			args = append(args, q.Return.ExVAT.String(), q.Return.VAT.String(), q.Return.Total.String())
		} else {
			args = append(args, nil, nil, nil)
		}
		args = append(args, q.Total.ExVAT.String(), q.Total.VAT.String(), q.Total.Total.String())
	}
	args = append(args, id, string(from))

	res, err := r.DB.ExecContext(ctx,
		`UPDATE offers SET `+strings.Join(set, ", ")+` WHERE id = ? AND status = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
