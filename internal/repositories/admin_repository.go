package repositories

import (
	"context"
	"database/sql"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"
)

type AgreementRepository struct {
	DB *intdb.Conn
}

const agreementColumns = `id, association_name, COALESCE(contact_person,''), COALESCE(email,''), COALESCE(phone,''),
	valid_from, valid_to, discount_percent, COALESCE(terms,''), created_at, updated_at`

func scanAgreement(row rowScanner) (models.AssociationAgreement, error) {
	var (
		a        models.AssociationAgreement
		from, to sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.AssociationName, &a.ContactPerson, &a.Email, &a.Phone,
		&from, &to, &a.DiscountPercent, &a.Terms, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return models.AssociationAgreement{}, err
	}
	a.ValidFrom = intdb.DateString(from)
	a.ValidTo = intdb.DateString(to)
	return a, nil
}

func (r AgreementRepository) Insert(ctx context.Context, a *models.AssociationAgreement) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO association_agreements (id, association_name, contact_person, email, phone, valid_from, valid_to,
			discount_percent, terms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AssociationName, intdb.NullIfEmpty(a.ContactPerson), intdb.NullIfEmpty(a.Email),
		intdb.NullIfEmpty(a.Phone), dateArg(a.ValidFrom), dateArg(a.ValidTo), a.DiscountPercent.String(),
		intdb.NullIfEmpty(a.Terms), ts, ts,
	)
	if err != nil {
		return err
	}
	a.CreatedAt, a.UpdatedAt = ts, ts
	return nil
}

func (r AgreementRepository) GetByID(ctx context.Context, id string) (models.AssociationAgreement, error) {
	a, err := scanAgreement(r.DB.QueryRowContext(ctx, `SELECT `+agreementColumns+` FROM association_agreements WHERE id = ?`, id))
	if err != nil {
		return models.AssociationAgreement{}, notFound("agreement", err)
	}
	return a, nil
}

func (r AgreementRepository) List(ctx context.Context) ([]models.AssociationAgreement, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+agreementColumns+` FROM association_agreements ORDER BY association_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AssociationAgreement{}
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r AgreementRepository) Update(ctx context.Context, a *models.AssociationAgreement) error {
	ts := now()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE association_agreements SET association_name = ?, contact_person = ?, email = ?, phone = ?,
			valid_from = ?, valid_to = ?, discount_percent = ?, terms = ?, updated_at = ?
		WHERE id = ?`,
		a.AssociationName, intdb.NullIfEmpty(a.ContactPerson), intdb.NullIfEmpty(a.Email),
		intdb.NullIfEmpty(a.Phone), dateArg(a.ValidFrom), dateArg(a.ValidTo), a.DiscountPercent.String(),
		intdb.NullIfEmpty(a.Terms), ts, a.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "agreement"}
	}
	a.UpdatedAt = ts
	return nil
}

type PriceProfileRepository struct {
	DB *intdb.Conn
}

const priceProfileColumns = `id, name, base_fee, per_km, per_hour, vat_rate, active, created_at, updated_at`

func scanPriceProfile(row rowScanner) (models.PriceProfile, error) {
	var p models.PriceProfile
	err := row.Scan(&p.ID, &p.Name, &p.BaseFee, &p.PerKm, &p.PerHour, &p.VATRate, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r PriceProfileRepository) Insert(ctx context.Context, p *models.PriceProfile) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO bus_price_profiles (id, name, base_fee, per_km, per_hour, vat_rate, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.BaseFee.String(), p.PerKm.String(), p.PerHour.String(), p.VATRate.String(), p.Active, ts, ts,
	)
	if err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = ts, ts
	return nil
}

func (r PriceProfileRepository) GetByID(ctx context.Context, id string) (models.PriceProfile, error) {
	p, err := scanPriceProfile(r.DB.QueryRowContext(ctx, `SELECT `+priceProfileColumns+` FROM bus_price_profiles WHERE id = ?`, id))
	if err != nil {
		return models.PriceProfile{}, notFound("price profile", err)
	}
	return p, nil
}

func (r PriceProfileRepository) List(ctx context.Context) ([]models.PriceProfile, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+priceProfileColumns+` FROM bus_price_profiles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PriceProfile{}
	for rows.Next() {
		p, err := scanPriceProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r PriceProfileRepository) Update(ctx context.Context, p *models.PriceProfile) error {
	ts := now()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE bus_price_profiles SET name = ?, base_fee = ?, per_km = ?, per_hour = ?, vat_rate = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.BaseFee.String(), p.PerKm.String(), p.PerHour.String(), p.VATRate.String(), p.Active, ts, p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "price profile"}
	}
	p.UpdatedAt = ts
	return nil
}

type UserRepository struct {
	DB *intdb.Conn
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, role, created_at FROM users WHERE LOWER(email) = LOWER(?)`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return models.User{}, notFound("user", err)
	}
	return u, nil
}

// Insert creates an admin user; an existing email is a conflict.
func (r UserRepository) Insert(ctx context.Context, u *models.User) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, ts)
	if intdb.IsUniqueViolation(err) {
		return domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
	}
	if err != nil {
		return err
	}
	u.CreatedAt = ts
	return nil
}
