package repositories

import (
	"context"
	"database/sql"
	"strings"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"
)

type DriverRepository struct {
	DB *intdb.Conn
}

const driverColumns = `
	id, name, COALESCE(email,''), COALESCE(phone,''), COALESCE(license_classes,''),
	COALESCE(employment_type,''), hired_on, active, COALESCE(avatar_path,''), COALESCE(notes,''),
	created_at, updated_at`

func scanDriver(row rowScanner) (models.Driver, error) {
	var (
		d     models.Driver
		hired sql.NullTime
	)
	if err := row.Scan(
		&d.ID, &d.Name, &d.Email, &d.Phone, &d.LicenseClasses,
		&d.EmploymentType, &hired, &d.Active, &d.AvatarPath, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return models.Driver{}, err
	}
	d.HiredOn = intdb.DateString(hired)
	return d, nil
}

func (r DriverRepository) Insert(ctx context.Context, d *models.Driver) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO drivers (id, name, email, phone, license_classes, employment_type, hired_on, active, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, intdb.NullIfEmpty(d.Email), intdb.NullIfEmpty(d.Phone),
		intdb.NullIfEmpty(d.LicenseClasses), intdb.NullIfEmpty(d.EmploymentType),
		dateArg(d.HiredOn), d.Active, intdb.NullIfEmpty(d.Notes), ts, ts,
	)
	if err != nil {
		return err
	}
	d.CreatedAt, d.UpdatedAt = ts, ts
	return nil
}

func (r DriverRepository) GetByID(ctx context.Context, id string) (models.Driver, error) {
	d, err := scanDriver(r.DB.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = ?`, id))
	if err != nil {
		return models.Driver{}, notFound("driver", err)
	}
	return d, nil
}

// List returns drivers ordered by name; activeOnly hides inactive ones.
func (r DriverRepository) List(ctx context.Context, q string, activeOnly bool) ([]models.Driver, error) {
	where := []string{"1=1"}
	args := []any{}
	if activeOnly {
		where = append(where, "active = ?")
		args = append(args, true)
	}
	if q = strings.TrimSpace(q); q != "" {
		like := intdb.Like(q)
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(COALESCE(email,'')) LIKE ? OR LOWER(COALESCE(phone,'')) LIKE ?)")
		args = append(args, like, like, like)
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+driverColumns+` FROM drivers WHERE `+strings.Join(where, " AND ")+` ORDER BY name ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Driver{}
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r DriverRepository) Update(ctx context.Context, d *models.Driver) error {
	ts := now()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE drivers SET name = ?, email = ?, phone = ?, license_classes = ?, employment_type = ?,
			hired_on = ?, active = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, intdb.NullIfEmpty(d.Email), intdb.NullIfEmpty(d.Phone),
		intdb.NullIfEmpty(d.LicenseClasses), intdb.NullIfEmpty(d.EmploymentType),
		dateArg(d.HiredOn), d.Active, intdb.NullIfEmpty(d.Notes), ts, d.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "driver"}
	}
	d.UpdatedAt = ts
	return nil
}

func (r DriverRepository) SetAvatar(ctx context.Context, id, path string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE drivers SET avatar_path = ?, updated_at = ? WHERE id = ?`,
		intdb.NullIfEmpty(path), now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "driver"}
	}
	return nil
}

// Delete removes the driver; documents go with it through the FK cascade.
func (r DriverRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM drivers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "driver"}
	}
	return nil
}

func (r DriverRepository) InsertDocument(ctx context.Context, doc *models.DriverDocument) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO driver_documents (id, driver_id, name, storage_path, created_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.DriverID, doc.Name, doc.StoragePath, ts)
	if intdb.IsForeignKeyViolation(err) {
		return domain.NotFoundError{Resource: "driver", Err: err}
	}
	if err != nil {
		return err
	}
	doc.CreatedAt = ts
	return nil
}

func (r DriverRepository) ListDocuments(ctx context.Context, driverID string) ([]models.DriverDocument, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, driver_id, name, storage_path, created_at FROM driver_documents WHERE driver_id = ? ORDER BY created_at DESC`,
		driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DriverDocument{}
	for rows.Next() {
		var d models.DriverDocument
		if err := rows.Scan(&d.ID, &d.DriverID, &d.Name, &d.StoragePath, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r DriverRepository) GetDocument(ctx context.Context, driverID, docID string) (models.DriverDocument, error) {
	var d models.DriverDocument
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, driver_id, name, storage_path, created_at FROM driver_documents WHERE id = ? AND driver_id = ?`,
		docID, driverID,
	).Scan(&d.ID, &d.DriverID, &d.Name, &d.StoragePath, &d.CreatedAt)
	if err != nil {
		return models.DriverDocument{}, notFound("driver document", err)
	}
	return d, nil
}

func (r DriverRepository) DeleteDocument(ctx context.Context, driverID, docID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM driver_documents WHERE id = ? AND driver_id = ?`, docID, driverID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "driver document"}
	}
	return nil
}
