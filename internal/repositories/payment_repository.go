package repositories

import (
	"context"
	"database/sql"
	"time"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"
)

// TicketRepository stores widget orders and their payment state.
type TicketRepository struct {
	DB *intdb.Conn
}

const ticketColumns = `
	id, order_number, trip_id, depart_date, quantity, customer_name, customer_email,
	COALESCE(customer_phone,''), amount, status, COALESCE(checkout_session_id,''), created_at, updated_at`

func scanTicket(row rowScanner) (models.TicketBooking, error) {
	var (
		t    models.TicketBooking
		date sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.OrderNumber, &t.TripID, &date, &t.Quantity, &t.CustomerName, &t.CustomerEmail,
		&t.CustomerPhone, &t.Amount, &t.Status, &t.CheckoutSessionID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.TicketBooking{}, err
	}
	t.DepartDate = intdb.DateString(date)
	return t, nil
}

func (r TicketRepository) Insert(ctx context.Context, t *models.TicketBooking) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO ticket_bookings (id, order_number, trip_id, depart_date, quantity, customer_name, customer_email,
			customer_phone, amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrderNumber, t.TripID, dateArg(t.DepartDate), t.Quantity, t.CustomerName, t.CustomerEmail,
		intdb.NullIfEmpty(t.CustomerPhone), t.Amount.String(), t.Status, ts, ts,
	)
	if err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = ts, ts
	return nil
}

func (r TicketRepository) GetByID(ctx context.Context, id string) (models.TicketBooking, error) {
	t, err := scanTicket(r.DB.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM ticket_bookings WHERE id = ?`, id))
	if err != nil {
		return models.TicketBooking{}, notFound("ticket booking", err)
	}
	return t, nil
}

func (r TicketRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE ticket_bookings SET checkout_session_id = ?, updated_at = ? WHERE id = ?`, sessionID, now(), id)
	return err
}

// SetStatus moves an order from one status to another. It reports false when
// the order was not in status from, which makes redelivered payment events
// harmless.
func (r TicketRepository) SetStatus(ctx context.Context, id string, from, to domain.TicketStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE ticket_bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), now(), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ExpirePending marks pending orders created before cutoff as expired.
func (r TicketRepository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE ticket_bookings SET status = ?, updated_at = ? WHERE status = ? AND created_at < ?`,
		string(domain.TicketExpired), now(), string(domain.TicketPending), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
