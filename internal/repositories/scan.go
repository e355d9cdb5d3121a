package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	intdb "charter/internal/db"
	"charter/internal/domain"

	"github.com/shopspring/decimal"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return err
}

// missingRef turns a foreign key violation into a validation error on the
// offending column. Other errors pass through.
func missingRef(err error, columns ...string) error {
	if !intdb.IsForeignKeyViolation(err) {
		return err
	}
	field := intdb.ForeignKeyColumn(err, columns...)
	if field == "" && len(columns) > 0 {
		field = columns[0]
	}
	return domain.ValidationError{Field: field, Msg: "refers to a record that does not exist", Err: err}
}

// dateArg turns a YYYY-MM-DD string into a DATE argument (NULL when empty).
// Input has already been validated by the service layer.
func dateArg(s string) any {
	v, err := intdb.NullDate(s)
	if err != nil {
		return nil
	}
	return v
}

func nullDecimalArg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func nullIntArg(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// orderDir accepts only asc/desc.
func orderDir(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return "ASC"
	}
	return "DESC"
}

func now() time.Time { return time.Now().UTC() }
