package numbering

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"charter/internal/db"
	"charter/internal/domain"
)

const defaultAttempts = 8

// Seeder returns the highest sequence already used for prefix/year outside
// number_sequences. It runs once per prefix and year.
type Seeder func(ctx context.Context, q db.Querier, prefix string, year int) (int, error)

// Allocator hands out numbers from number_sequences with a compare-and-set
// loop, so concurrent callers never get the same value.
type Allocator struct {
	DB          db.Querier
	Seeders     map[string]Seeder
	MaxAttempts int
	Now         func() time.Time
}

// Next allocates the next number for prefix in the current year.
func (a *Allocator) Next(ctx context.Context, prefix string) (Number, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return a.NextForYear(ctx, prefix, now().Year())
}

func (a *Allocator) NextForYear(ctx context.Context, prefix string, year int) (Number, error) {
	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	for i := 0; i < attempts; i++ {
		var last int
		err := a.DB.QueryRowContext(ctx,
			`SELECT last_value FROM number_sequences WHERE prefix = ? AND year = ?`,
			prefix, year,
		).Scan(&last)

		if errors.Is(err, sql.ErrNoRows) {
			seed, serr := a.seed(ctx, prefix, year)
			if serr != nil {
				return Number{}, serr
			}
			next := seed + 1
			_, ierr := a.DB.ExecContext(ctx,
				`INSERT INTO number_sequences (prefix, year, last_value) VALUES (?, ?, ?)`,
				prefix, year, next,
			)
			if ierr == nil {
				return Number{Prefix: prefix, Year: year, Seq: next}, nil
			}
			if db.IsUniqueViolation(ierr) {
				continue
			}
			return Number{}, fmt.Errorf("insert number sequence: %w", ierr)
		}
		if err != nil {
			return Number{}, fmt.Errorf("read number sequence: %w", err)
		}

		next := last + 1
		res, err := a.DB.ExecContext(ctx,
			`UPDATE number_sequences SET last_value = ? WHERE prefix = ? AND year = ? AND last_value = ?`,
			next, prefix, year, last,
		)
		if err != nil {
			return Number{}, fmt.Errorf("advance number sequence: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return Number{Prefix: prefix, Year: year, Seq: next}, nil
		}
	}

	return Number{}, domain.ConflictError{
		Resource: "number_sequence",
		Msg:      fmt.Sprintf("could not allocate %s number after %d attempts", Stem(prefix, year), attempts),
	}
}

func (a *Allocator) seed(ctx context.Context, prefix string, year int) (int, error) {
	s, ok := a.Seeders[prefix]
	if !ok || s == nil {
		return 0, nil
	}
	n, err := s(ctx, a.DB, prefix, year)
	if err != nil {
		return 0, fmt.Errorf("seed %s sequence: %w", prefix, err)
	}
	return n, nil
}

// SeedFromColumn scans existing numbers in table.column so numbers issued
// before number_sequences existed are not handed out again. table and column
// are fixed identifiers, never user input.
func SeedFromColumn(table, column string) Seeder {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s LIKE ?`, column, table, column)
	return func(ctx context.Context, q db.Querier, prefix string, year int) (int, error) {
		stem := Stem(prefix, year)
		rows, err := q.QueryContext(ctx, query, stem+"%")
		if err != nil {
			return 0, err
		}
		defer rows.Close()

		max := 0
		for rows.Next() {
			var v sql.NullString
			if err := rows.Scan(&v); err != nil {
				return 0, err
			}
			if n, ok := ParseSeq(v.String, stem); ok && n > max {
				max = n
			}
		}
		return max, rows.Err()
	}
}
