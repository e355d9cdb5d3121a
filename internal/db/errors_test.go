package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestForeignKeyViolation(t *testing.T) {
	my := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row: a foreign key constraint fails " +
		"(`charter`.`bookings`, CONSTRAINT `bookings_ibfk_3` FOREIGN KEY (`vehicle_id`) REFERENCES `vehicles` (`id`))"}
	pg := &pgconn.PgError{Code: "23503", ConstraintName: "bookings_driver_id_fkey"}

	cases := []struct {
		name   string
		err    error
		isFK   bool
		column string
	}{
		{"mysql", fmt.Errorf("insert booking: %w", my), true, "vehicle_id"},
		{"postgres", pg, true, "driver_id"},
		{"duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false, ""},
		{"plain", errors.New("boom"), false, ""},
		{"nil", nil, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsForeignKeyViolation(tc.err); got != tc.isFK {
				t.Fatalf("IsForeignKeyViolation = %v, want %v", got, tc.isFK)
			}
			if got := ForeignKeyColumn(tc.err, "driver_id", "vehicle_id"); got != tc.column {
				t.Fatalf("ForeignKeyColumn = %q, want %q", got, tc.column)
			}
		})
	}
}
