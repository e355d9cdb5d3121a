package repositories

import (
	"context"
	"errors"
	"testing"

	"charter/internal/domain"
	"charter/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestBookingInsertUnknownVehicleIsValidation(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row: a foreign key constraint fails " +
			"(`charter`.`bookings`, CONSTRAINT `bookings_ibfk_3` FOREIGN KEY (`vehicle_id`) REFERENCES `vehicles` (`id`))"})

	b := &models.Booking{
		ID: "b-1", BookingNumber: "BK25001", Status: "bokad",
		DeparturePlace: "Åhus", Destination: "Lund", DepartureDate: "2025-09-12", Passengers: 42,
		VehicleID: "2f0c3a8e-6a43-4a55-8d8c-0d7e2a9d5b11",
	}
	err := repo.Insert(context.Background(), b)
	var ve domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != "vehicle_id" {
		t.Fatalf("field = %q, want vehicle_id", ve.Field)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingListBySourceOffer(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectQuery("FROM bookings WHERE 1=1 AND source_offer_id = \\?").
		WithArgs("o-1", 1, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := repo.List(context.Background(), models.BookingFilter{SourceOfferID: "o-1", Limit: 1})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
