package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	intdb "charter/internal/db"
	"charter/internal/domain"
	"charter/internal/domain/models"
)

type TripRepository struct {
	DB *intdb.Conn
}

const tripColumns = `
	id, slug, title, COALESCE(image,''), price_from, COALESCE(ribbon,''), COALESCE(badge,''),
	categories, COALESCE(country,''), COALESCE(year,0), published, departures_cache,
	created_at, updated_at`

func scanTrip(row rowScanner) (models.Trip, error) {
	var (
		t               models.Trip
		categories, dep sql.NullString
	)
	if err := row.Scan(
		&t.ID, &t.Slug, &t.Title, &t.Image, &t.PriceFrom, &t.Ribbon, &t.Badge,
		&categories, &t.Country, &t.Year, &t.Published, &dep,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return models.Trip{}, err
	}
	t.Categories = decodeCategories(categories.String)
	t.DeparturesCache = decodeDepartures(dep.String)
	return t, nil
}

// Malformed JSON in the text columns reads as empty rather than failing the
// whole listing.
func decodeCategories(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func decodeDepartures(raw string) []models.CachedDeparture {
	out := []models.CachedDeparture{}
	if strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &out)
	}
	if out == nil {
		out = []models.CachedDeparture{}
	}
	return out
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func duplicateSlug(err error) error {
	if intdb.IsUniqueViolation(err) {
		return domain.ConflictError{Resource: "trip", Msg: "slug already exists", Err: err}
	}
	return err
}

func (r TripRepository) Insert(ctx context.Context, t *models.Trip) error {
	ts := now()
	if t.Categories == nil {
		t.Categories = []string{}
	}
	if t.DeparturesCache == nil {
		t.DeparturesCache = []models.CachedDeparture{}
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO trips (id, slug, title, image, price_from, ribbon, badge, categories, country, year,
			published, departures_cache, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Slug, t.Title, intdb.NullIfEmpty(t.Image), nullDecimalArg(t.PriceFrom),
		intdb.NullIfEmpty(t.Ribbon), intdb.NullIfEmpty(t.Badge), encodeJSON(t.Categories),
		intdb.NullIfEmpty(t.Country), nullIntArg(positive(t.Year)), t.Published,
		encodeJSON(t.DeparturesCache), ts, ts,
	)
	if err != nil {
		return duplicateSlug(err)
	}
	t.CreatedAt, t.UpdatedAt = ts, ts
	return nil
}

func (r TripRepository) GetByID(ctx context.Context, id string) (models.Trip, error) {
	t, err := scanTrip(r.DB.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id))
	if err != nil {
		return models.Trip{}, notFound("trip", err)
	}
	return t, nil
}

func (r TripRepository) List(ctx context.Context) ([]models.Trip, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r TripRepository) Update(ctx context.Context, t *models.Trip) error {
	ts := now()
	if t.Categories == nil {
		t.Categories = []string{}
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE trips SET slug = ?, title = ?, image = ?, price_from = ?, ribbon = ?, badge = ?,
			categories = ?, country = ?, year = ?, published = ?, updated_at = ?
		WHERE id = ?`,
		t.Slug, t.Title, intdb.NullIfEmpty(t.Image), nullDecimalArg(t.PriceFrom),
		intdb.NullIfEmpty(t.Ribbon), intdb.NullIfEmpty(t.Badge), encodeJSON(t.Categories),
		intdb.NullIfEmpty(t.Country), nullIntArg(positive(t.Year)), t.Published, ts, t.ID,
	)
	if err != nil {
		return duplicateSlug(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	t.UpdatedAt = ts
	return nil
}

// SetDeparturesCache overwrites the denormalised departures JSON.
func (r TripRepository) SetDeparturesCache(ctx context.Context, id string, deps []models.CachedDeparture) error {
	if deps == nil {
		deps = []models.CachedDeparture{}
	}
	_, err := r.DB.ExecContext(ctx, `UPDATE trips SET departures_cache = ?, updated_at = ? WHERE id = ?`,
		encodeJSON(deps), now(), id)
	return err
}

func (r TripRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM trips ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListPublished feeds the public widget: published trips with their next
// departure on or after today, soonest first, trips without upcoming
// departures last.
func (r TripRepository) ListPublished(ctx context.Context, today string, limit int) ([]models.PublicTrip, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT t.id, t.title, COALESCE(t.image,''), t.price_from, MIN(d.depart_date),
			COALESCE(t.ribbon,''), COALESCE(t.badge,''), t.categories, COALESCE(t.country,''), COALESCE(t.year,0)
		FROM trips t
		LEFT JOIN trip_departures d ON d.trip_id = t.id AND d.depart_date >= ?
		WHERE t.published = ?
		GROUP BY t.id, t.title, t.image, t.price_from, t.ribbon, t.badge, t.categories, t.country, t.year
		ORDER BY CASE WHEN MIN(d.depart_date) IS NULL THEN 1 ELSE 0 END, MIN(d.depart_date), t.title
		LIMIT ?`,
		dateArg(today), true, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PublicTrip{}
	for rows.Next() {
		var (
			p          models.PublicTrip
			next       sql.NullTime
			categories sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Image, &p.PriceFrom, &next,
			&p.Ribbon, &p.Badge, &categories, &p.Country, &p.Year); err != nil {
			return nil, err
		}
		p.NextDate = intdb.DateString(next)
		p.Categories = decodeCategories(categories.String)
		out = append(out, p)
	}
	return out, rows.Err()
}
