package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"charter/internal/cache"
	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

const (
	publicTripsKey     = "charter:public_trips"
	publicTripsDefault = 12
	publicTripsMax     = 50
)

type TripStore interface {
	Insert(ctx context.Context, t *models.Trip) error
	GetByID(ctx context.Context, id string) (models.Trip, error)
	List(ctx context.Context) ([]models.Trip, error)
	Update(ctx context.Context, t *models.Trip) error
	SetDeparturesCache(ctx context.Context, id string, deps []models.CachedDeparture) error
	ListIDs(ctx context.Context) ([]string, error)
	ListPublished(ctx context.Context, today string, limit int) ([]models.PublicTrip, error)
}

type TripInput struct {
	Slug       string              `json:"slug"`
	Title      string              `json:"title"`
	Image      string              `json:"image"`
	PriceFrom  decimal.NullDecimal `json:"price_from"`
	Ribbon     string              `json:"ribbon"`
	Badge      string              `json:"badge"`
	Categories []string            `json:"categories"`
	Country    string              `json:"country"`
	Year       int                 `json:"year"`
	Published  bool                `json:"published"`
}

type DepartureInput struct {
	DepartDate    string `json:"depart_date" binding:"omitempty,isodate"`
	DepartTime    string `json:"depart_time" binding:"omitempty,hhmm"`
	Line          string `json:"line"`
	CapacityTotal *int   `json:"capacity_total" binding:"omitempty,min=0"`
}

// TripService manages the catalog. trip_departures is authoritative;
// trips.departures_cache is rebuilt from it after every departure write.
type TripService struct {
	Trips      TripStore
	Departures DepartureStore
	Cache      cache.Cache
	CacheTTL   time.Duration
	RequestID  string
}

func (s TripService) cache() cache.Cache {
	if s.Cache != nil {
		return s.Cache
	}
	return cache.Nop{}
}

func (s TripService) Create(ctx context.Context, in TripInput) (models.Trip, error) {
	t := models.Trip{ID: uuid.NewString()}
	if err := applyTripInput(&t, in); err != nil {
		return models.Trip{}, err
	}
	if err := s.Trips.Insert(ctx, &t); err != nil {
		return models.Trip{}, err
	}
	s.invalidate(ctx)
	utils.LogEvent(s.RequestID, "trips", "create", "slug="+t.Slug)
	return t, nil
}

func (s TripService) Get(ctx context.Context, id string) (models.Trip, error) {
	return s.Trips.GetByID(ctx, id)
}

func (s TripService) List(ctx context.Context) ([]models.Trip, error) {
	return s.Trips.List(ctx)
}

func (s TripService) Update(ctx context.Context, id string, in TripInput) (models.Trip, error) {
	t, err := s.Trips.GetByID(ctx, id)
	if err != nil {
		return models.Trip{}, err
	}
	if err := applyTripInput(&t, in); err != nil {
		return models.Trip{}, err
	}
	if err := s.Trips.Update(ctx, &t); err != nil {
		return models.Trip{}, err
	}
	s.invalidate(ctx)
	utils.LogEvent(s.RequestID, "trips", "update", "slug="+t.Slug)
	return t, nil
}

func (s TripService) ListDepartures(ctx context.Context, tripID string) ([]models.TripDeparture, error) {
	if _, err := s.Trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	return s.Departures.ListByTrip(ctx, tripID)
}

func (s TripService) AddDeparture(ctx context.Context, tripID string, in DepartureInput) (models.TripDeparture, error) {
	if _, err := s.Trips.GetByID(ctx, tripID); err != nil {
		return models.TripDeparture{}, err
	}
	d := models.TripDeparture{ID: uuid.NewString(), TripID: tripID}
	if err := applyDepartureInput(&d, in, true); err != nil {
		return models.TripDeparture{}, err
	}
	if err := s.Departures.Insert(ctx, &d); err != nil {
		return models.TripDeparture{}, err
	}
	s.afterDepartureWrite(ctx, tripID)
	return d, nil
}

// UpdateDeparture changes time, line and capacity. The date is fixed once
// created because seats are reserved against it.
func (s TripService) UpdateDeparture(ctx context.Context, tripID, id string, in DepartureInput) (models.TripDeparture, error) {
	d, err := s.Departures.GetByID(ctx, tripID, id)
	if err != nil {
		return models.TripDeparture{}, err
	}
	if err := applyDepartureInput(&d, in, false); err != nil {
		return models.TripDeparture{}, err
	}
	if err := s.Departures.Update(ctx, &d); err != nil {
		return models.TripDeparture{}, err
	}
	s.afterDepartureWrite(ctx, tripID)
	return d, nil
}

func (s TripService) DeleteDeparture(ctx context.Context, tripID, id string) error {
	d, err := s.Departures.GetByID(ctx, tripID, id)
	if err != nil {
		return err
	}
	if d.SeatsReserved > 0 {
		return domain.ConflictError{Resource: "departure", Msg: fmt.Sprintf("%d seats are already sold", d.SeatsReserved)}
	}
	if err := s.Departures.Delete(ctx, tripID, id); err != nil {
		return err
	}
	s.afterDepartureWrite(ctx, tripID)
	return nil
}

func (s TripService) afterDepartureWrite(ctx context.Context, tripID string) {
	if err := s.RebuildCache(ctx, tripID); err != nil {
		// The periodic rebuild catches up.
		utils.LogError(s.RequestID, "trips", "rebuild_cache", err)
	}
	s.invalidate(ctx)
}

// RebuildCache rewrites trips.departures_cache from trip_departures.
func (s TripService) RebuildCache(ctx context.Context, tripID string) error {
	deps, err := s.Departures.ListByTrip(ctx, tripID)
	if err != nil {
		return err
	}
	cached := make([]models.CachedDeparture, 0, len(deps))
	for _, d := range deps {
		cached = append(cached, models.CachedDeparture{Date: d.DepartDate, Time: d.DepartTime, Line: d.Line})
	}
	return s.Trips.SetDeparturesCache(ctx, tripID, cached)
}

// RebuildAllCaches is run by the scheduler.
func (s TripService) RebuildAllCaches(ctx context.Context) error {
	ids, err := s.Trips.ListIDs(ctx)
	if err != nil {
		return err
	}
	var failed int
	for _, id := range ids {
		if err := s.RebuildCache(ctx, id); err != nil {
			failed++
			utils.LogError(s.RequestID, "trips", "rebuild_cache", fmt.Errorf("trip %s: %w", id, err))
		}
	}
	s.invalidate(ctx)
	if failed > 0 {
		return fmt.Errorf("departure cache rebuild failed for %d of %d trips", failed, len(ids))
	}
	return nil
}

// PublicTrips is the widget feed. The full list (publicTripsMax entries) is
// cached once and sliced per request.
func (s TripService) PublicTrips(ctx context.Context, limit int) ([]models.PublicTrip, error) {
	if limit <= 0 {
		limit = publicTripsDefault
	}
	if limit > publicTripsMax {
		limit = publicTripsMax
	}

	var trips []models.PublicTrip
	if raw, ok := s.cache().Get(ctx, publicTripsKey); ok && json.Unmarshal(raw, &trips) == nil {
		return head(trips, limit), nil
	}

	trips, err := s.Trips.ListPublished(ctx, utils.Today(), publicTripsMax)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(trips); err == nil && s.CacheTTL > 0 {
		if err := s.cache().Set(ctx, publicTripsKey, raw, s.CacheTTL); err != nil {
			utils.LogError(s.RequestID, "trips", "cache_set", err)
		}
	}
	return head(trips, limit), nil
}

func (s TripService) invalidate(ctx context.Context) {
	if err := s.cache().Delete(ctx, publicTripsKey); err != nil {
		utils.LogError(s.RequestID, "trips", "cache_invalidate", err)
	}
}

func head(trips []models.PublicTrip, n int) []models.PublicTrip {
	if len(trips) > n {
		return trips[:n]
	}
	return trips
}

func applyTripInput(t *models.Trip, in TripInput) error {
	title, err := requireText("title", in.Title)
	if err != nil {
		return err
	}
	s := slug.Make(utils.DefaultIfEmpty(in.Slug, title))
	if s == "" {
		return domain.ValidationError{Field: "slug", Msg: "could not derive a slug"}
	}
	if in.PriceFrom.Valid && in.PriceFrom.Decimal.IsNegative() {
		return domain.ValidationError{Field: "price_from", Msg: "must not be negative"}
	}
	if in.Year < 0 {
		return domain.ValidationError{Field: "year", Msg: "must not be negative"}
	}
	categories := []string{}
	for _, c := range in.Categories {
		if c = utils.NormalizeSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	t.Slug = s
	t.Title = title
	t.Image = strings.TrimSpace(in.Image)
	t.PriceFrom = in.PriceFrom
	t.Ribbon = utils.NormalizeSpace(in.Ribbon)
	t.Badge = utils.NormalizeSpace(in.Badge)
	t.Categories = categories
	t.Country = utils.NormalizeSpace(in.Country)
	t.Year = in.Year
	t.Published = in.Published
	return nil
}

func applyDepartureInput(d *models.TripDeparture, in DepartureInput, create bool) error {
	if create {
		date := strings.TrimSpace(in.DepartDate)
		if date == "" {
			return domain.ValidationError{Field: "depart_date", Msg: "is required"}
		}
		if _, err := utils.ParseDate(date); err != nil {
			return domain.ValidationError{Field: "depart_date", Msg: "expected YYYY-MM-DD", Err: err}
		}
		d.DepartDate = date
	}
	hm, err := utils.NormalizeHHMM(in.DepartTime)
	if err != nil {
		return domain.ValidationError{Field: "depart_time", Msg: "expected HH:MM", Err: err}
	}
	if in.CapacityTotal != nil && *in.CapacityTotal < 0 {
		return domain.ValidationError{Field: "capacity_total", Msg: "must not be negative"}
	}
	d.DepartTime = hm
	d.Line = utils.NormalizeSpace(in.Line)
	d.CapacityTotal = in.CapacityTotal
	return nil
}
