package numbering

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"charter/internal/db"
	"charter/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMock(t *testing.T) (*db.Conn, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db.Wrap(sqlDB, db.MySQL), mock
}

func TestNumberString(t *testing.T) {
	n := Number{Prefix: "HB", Year: 2025, Seq: 7}
	if got := n.String(); got != "HB25007" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Number{Prefix: "BK", Year: 2031, Seq: 1234}).String(); got != "BK311234" {
		t.Fatalf("String() = %q", got)
	}
}

func TestAllocatorSequentialStrictlyIncreasing(t *testing.T) {
	conn, mock := newMock(t)
	a := &Allocator{DB: conn}

	for _, last := range []int{6, 7, 8} {
		mock.ExpectQuery("SELECT last_value FROM number_sequences").
			WithArgs("HB", 2025).
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(last))
		mock.ExpectExec("UPDATE number_sequences SET last_value").
			WithArgs(last+1, "HB", 2025, last).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	prev := ""
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		n, err := a.NextForYear(context.Background(), "HB", 2025)
		if err != nil {
			t.Fatalf("NextForYear error: %v", err)
		}
		s := n.String()
		if seen[s] {
			t.Fatalf("duplicate number %s", s)
		}
		if prev != "" && s <= prev {
			t.Fatalf("number %s not greater than %s", s, prev)
		}
		seen[s] = true
		prev = s
	}
	if prev != "HB25009" {
		t.Fatalf("last number = %s, want HB25009", prev)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAllocatorSeedsFromExistingRecords(t *testing.T) {
	conn, mock := newMock(t)
	a := &Allocator{
		DB:      conn,
		Seeders: map[string]Seeder{"HB": SeedFromColumn("offers", "offer_number")},
	}

	mock.ExpectQuery("SELECT last_value FROM number_sequences").
		WithArgs("HB", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT offer_number FROM offers WHERE offer_number LIKE ?")).
		WithArgs("HB25%").
		WillReturnRows(sqlmock.NewRows([]string{"offer_number"}).
			AddRow("HB25004").
			AddRow("HB25012").
			AddRow("HB25x").
			AddRow(nil))
	mock.ExpectExec("INSERT INTO number_sequences").
		WithArgs("HB", 2025, 13).
		WillReturnResult(sqlmock.NewResult(1, 1))

	n, err := a.NextForYear(context.Background(), "HB", 2025)
	if err != nil {
		t.Fatalf("NextForYear error: %v", err)
	}
	if n.String() != "HB25013" {
		t.Fatalf("got %s, want HB25013", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAllocatorFirstOfYearStartsAtOne(t *testing.T) {
	conn, mock := newMock(t)
	a := &Allocator{DB: conn}

	mock.ExpectQuery("SELECT last_value FROM number_sequences").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}))
	mock.ExpectExec("INSERT INTO number_sequences").
		WithArgs("BK", 2026, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	n, err := a.NextForYear(context.Background(), "BK", 2026)
	if err != nil {
		t.Fatalf("NextForYear error: %v", err)
	}
	if n.String() != "BK26001" {
		t.Fatalf("got %s", n)
	}
}

func TestAllocatorRetriesLostCompareAndSet(t *testing.T) {
	conn, mock := newMock(t)
	a := &Allocator{DB: conn}

	mock.ExpectQuery("SELECT last_value FROM number_sequences").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(3))
	mock.ExpectExec("UPDATE number_sequences").
		WithArgs(4, "TB", 2025, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT last_value FROM number_sequences").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(4))
	mock.ExpectExec("UPDATE number_sequences").
		WithArgs(5, "TB", 2025, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := a.NextForYear(context.Background(), "TB", 2025)
	if err != nil {
		t.Fatalf("NextForYear error: %v", err)
	}
	if n.Seq != 5 {
		t.Fatalf("seq = %d, want 5", n.Seq)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAllocatorConcurrentFirstInsert(t *testing.T) {
	conn, mock := newMock(t)
	a := &Allocator{DB: conn}

	mock.ExpectQuery("SELECT last_value FROM number_sequences").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}))
	mock.ExpectExec("INSERT INTO number_sequences").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectQuery("SELECT last_value FROM number_sequences").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(1))
	mock.ExpectExec("UPDATE number_sequences").
		WithArgs(2, "HB", 2025, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := a.NextForYear(context.Background(), "HB", 2025)
	if err != nil {
		t.Fatalf("NextForYear error: %v", err)
	}
	if n.Seq != 2 {
		t.Fatalf("seq = %d, want 2", n.Seq)
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	conn, mock := newMock(t)
	a := &Allocator{DB: conn, MaxAttempts: 2}

	for i := 0; i < 2; i++ {
		mock.ExpectQuery("SELECT last_value FROM number_sequences").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(9))
		mock.ExpectExec("UPDATE number_sequences").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	_, err := a.NextForYear(context.Background(), "HB", 2025)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInsertWithRetrySucceedsAfterCollisions(t *testing.T) {
	seq := 0
	next := func(context.Context) (string, error) {
		seq++
		return Number{Prefix: "BK", Year: 2025, Seq: seq}.String(), nil
	}
	var tried []string
	insert := func(_ context.Context, number string) error {
		tried = append(tried, number)
		if len(tried) < 3 {
			return &pgconn.PgError{Code: "23505", ConstraintName: "bookings_booking_number_key"}
		}
		return nil
	}

	got, err := InsertWithRetry(context.Background(), 5, next, insert)
	if err != nil {
		t.Fatalf("InsertWithRetry error: %v", err)
	}
	if got != "BK25003" || len(tried) != 3 {
		t.Fatalf("got %s after %v", got, tried)
	}
}

func TestInsertWithRetryReportsStoreErrorWhenExhausted(t *testing.T) {
	storeErr := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'BK25001'"}
	calls := 0
	next := func(context.Context) (string, error) { return "BK25001", nil }
	insert := func(context.Context, string) error {
		calls++
		return storeErr
	}

	_, err := InsertWithRetry(context.Background(), 5, next, insert)
	if calls != 5 {
		t.Fatalf("insert called %d times, want 5", calls)
	}
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me != storeErr {
		t.Fatalf("store error not wrapped: %v", err)
	}
}

func TestInsertWithRetryStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	_, err := InsertWithRetry(context.Background(), 5,
		func(context.Context) (string, error) { return "BK25001", nil },
		func(context.Context, string) error { calls++; return boom },
	)
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}
