package repositories

import (
	"context"
	"database/sql"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"
)

type EmployeeRepository struct {
	DB *intdb.Conn
}

const employeeColumns = `
	id, name, COALESCE(email,''), COALESCE(phone,''), COALESCE(title,''),
	employed_on, active, COALESCE(avatar_path,''), created_at, updated_at`

func scanEmployee(row rowScanner) (models.Employee, error) {
	var (
		e        models.Employee
		employed sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Title,
		&employed, &e.Active, &e.AvatarPath, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.Employee{}, err
	}
	e.EmployedOn = intdb.DateString(employed)
	return e, nil
}

func (r EmployeeRepository) Insert(ctx context.Context, e *models.Employee) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, phone, title, employed_on, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, intdb.NullIfEmpty(e.Email), intdb.NullIfEmpty(e.Phone), intdb.NullIfEmpty(e.Title),
		dateArg(e.EmployedOn), e.Active, ts, ts,
	)
	if err != nil {
		return err
	}
	e.CreatedAt, e.UpdatedAt = ts, ts
	return nil
}

func (r EmployeeRepository) GetByID(ctx context.Context, id string) (models.Employee, error) {
	e, err := scanEmployee(r.DB.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id))
	if err != nil {
		return models.Employee{}, notFound("employee", err)
	}
	return e, nil
}

func (r EmployeeRepository) List(ctx context.Context) ([]models.Employee, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r EmployeeRepository) Update(ctx context.Context, e *models.Employee) error {
	ts := now()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE employees SET name = ?, email = ?, phone = ?, title = ?, employed_on = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		e.Name, intdb.NullIfEmpty(e.Email), intdb.NullIfEmpty(e.Phone), intdb.NullIfEmpty(e.Title),
		dateArg(e.EmployedOn), e.Active, ts, e.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "employee"}
	}
	e.UpdatedAt = ts
	return nil
}

func (r EmployeeRepository) SetAvatar(ctx context.Context, id, path string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE employees SET avatar_path = ?, updated_at = ? WHERE id = ?`,
		intdb.NullIfEmpty(path), now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "employee"}
	}
	return nil
}
