package repositories

import (
	"context"
	"testing"
	"time"

	"charter/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestTicketSetStatusGuardsFromStatus(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := TicketRepository{DB: conn}

	mock.ExpectExec("UPDATE ticket_bookings SET status = \\?, updated_at = \\? WHERE id = \\? AND status = \\?").
		WithArgs("paid", sqlmock.AnyArg(), "t-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE ticket_bookings SET status = \\?").
		WithArgs("paid", sqlmock.AnyArg(), "t-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.SetStatus(context.Background(), "t-1", domain.TicketPending, domain.TicketPaid)
	if err != nil || !ok {
		t.Fatalf("first SetStatus = %v, %v; want true, nil", ok, err)
	}
	ok, err = repo.SetStatus(context.Background(), "t-1", domain.TicketPending, domain.TicketPaid)
	if err != nil {
		t.Fatalf("second SetStatus error: %v", err)
	}
	if ok {
		t.Fatal("redelivered event must not move the order again")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTicketExpirePending(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := TicketRepository{DB: conn}
	cutoff := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE ticket_bookings SET status = \\?, updated_at = \\? WHERE status = \\? AND created_at < \\?").
		WithArgs("expired", sqlmock.AnyArg(), "pending", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpirePending(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ExpirePending error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expired = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTicketGetByIDNotFound(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := TicketRepository{DB: conn}

	mock.ExpectQuery("FROM ticket_bookings WHERE id = \\?").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
