package repositories

import (
	"context"
	"database/sql"
	"strings"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"
)

type VehicleRepository struct {
	DB *intdb.Conn
}

const vehicleColumns = `id, registration, COALESCE(name,''), seats, COALESCE(model_year,0), last_service,
	COALESCE(notes,''), created_at, updated_at`

func scanVehicle(row rowScanner) (models.Vehicle, error) {
	var (
		v       models.Vehicle
		service sql.NullTime
	)
	if err := row.Scan(&v.ID, &v.Registration, &v.Name, &v.Seats, &v.ModelYear, &service,
		&v.Notes, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return models.Vehicle{}, err
	}
	v.LastService = intdb.DateString(service)
	return v, nil
}

func duplicateRegistration(err error) error {
	if intdb.IsUniqueViolation(err) {
		return domain.ConflictError{Resource: "vehicle", Msg: "registration already exists", Err: err}
	}
	return err
}

func (r VehicleRepository) Insert(ctx context.Context, v *models.Vehicle) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO vehicles (id, registration, name, seats, model_year, last_service, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Registration, intdb.NullIfEmpty(v.Name), v.Seats, nullIntArg(positive(v.ModelYear)),
		dateArg(v.LastService), intdb.NullIfEmpty(v.Notes), ts, ts,
	)
	if err != nil {
		return duplicateRegistration(err)
	}
	v.CreatedAt, v.UpdatedAt = ts, ts
	return nil
}

func (r VehicleRepository) GetByID(ctx context.Context, id string) (models.Vehicle, error) {
	v, err := scanVehicle(r.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id))
	if err != nil {
		return models.Vehicle{}, notFound("vehicle", err)
	}
	return v, nil
}

// List matches q against registration and name, case-insensitively.
func (r VehicleRepository) List(ctx context.Context, q string, limit, offset int) ([]models.Vehicle, error) {
	where := "1=1"
	args := []any{}
	if q = strings.TrimSpace(q); q != "" {
		like := intdb.Like(q)
		where = "(LOWER(registration) LIKE ? OR LOWER(COALESCE(name,'')) LIKE ?)"
		args = append(args, like, like)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE `+where+` ORDER BY registration ASC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r VehicleRepository) Update(ctx context.Context, v *models.Vehicle) error {
	ts := now()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE vehicles SET registration = ?, name = ?, seats = ?, model_year = ?, last_service = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		v.Registration, intdb.NullIfEmpty(v.Name), v.Seats, nullIntArg(positive(v.ModelYear)),
		dateArg(v.LastService), intdb.NullIfEmpty(v.Notes), ts, v.ID,
	)
	if err != nil {
		return duplicateRegistration(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "vehicle"}
	}
	v.UpdatedAt = ts
	return nil
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
