package services

import (
	"context"
	"strings"

	"charter/internal/domain"
	"charter/internal/domain/models"
	"charter/internal/pricing"
	"charter/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type AgreementStore interface {
	Insert(ctx context.Context, a *models.AssociationAgreement) error
	GetByID(ctx context.Context, id string) (models.AssociationAgreement, error)
	List(ctx context.Context) ([]models.AssociationAgreement, error)
	Update(ctx context.Context, a *models.AssociationAgreement) error
}

type PriceProfileStore interface {
	Insert(ctx context.Context, p *models.PriceProfile) error
	GetByID(ctx context.Context, id string) (models.PriceProfile, error)
	List(ctx context.Context) ([]models.PriceProfile, error)
	Update(ctx context.Context, p *models.PriceProfile) error
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Insert(ctx context.Context, u *models.User) error
}

type AgreementInput struct {
	AssociationName string          `json:"association_name"`
	ContactPerson   string          `json:"contact_person"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	ValidFrom       string          `json:"valid_from"`
	ValidTo         string          `json:"valid_to"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Terms           string          `json:"terms"`
}

type AgreementService struct {
	Agreements AgreementStore
	RequestID  string
}

func (s AgreementService) Create(ctx context.Context, in AgreementInput) (models.AssociationAgreement, error) {
	a := models.AssociationAgreement{ID: uuid.NewString()}
	if err := applyAgreementInput(&a, in); err != nil {
		return models.AssociationAgreement{}, err
	}
	if err := s.Agreements.Insert(ctx, &a); err != nil {
		return models.AssociationAgreement{}, err
	}
	utils.LogEvent(s.RequestID, "agreements", "create", "id="+a.ID)
	return a, nil
}

func (s AgreementService) Get(ctx context.Context, id string) (models.AssociationAgreement, error) {
	return s.Agreements.GetByID(ctx, id)
}

func (s AgreementService) List(ctx context.Context) ([]models.AssociationAgreement, error) {
	return s.Agreements.List(ctx)
}

func (s AgreementService) Update(ctx context.Context, id string, in AgreementInput) (models.AssociationAgreement, error) {
	a, err := s.Agreements.GetByID(ctx, id)
	if err != nil {
		return models.AssociationAgreement{}, err
	}
	if err := applyAgreementInput(&a, in); err != nil {
		return models.AssociationAgreement{}, err
	}
	if err := s.Agreements.Update(ctx, &a); err != nil {
		return models.AssociationAgreement{}, err
	}
	return a, nil
}

func applyAgreementInput(a *models.AssociationAgreement, in AgreementInput) error {
	name, err := requireText("association_name", in.AssociationName)
	if err != nil {
		return err
	}
	email, err := optionalEmail("email", in.Email)
	if err != nil {
		return err
	}
	from, err := optionalDate("valid_from", in.ValidFrom)
	if err != nil {
		return err
	}
	to, err := optionalDate("valid_to", in.ValidTo)
	if err != nil {
		return err
	}
	if from != "" && to != "" && to < from {
		return domain.ValidationError{Field: "valid_to", Msg: "must not be before valid_from"}
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return domain.ValidationError{Field: "discount_percent", Msg: "must be between 0 and 100"}
	}
	a.AssociationName = name
	a.ContactPerson = utils.NormalizeSpace(in.ContactPerson)
	a.Email = email
	a.Phone = utils.TrimOrEmpty(in.Phone)
	a.ValidFrom = from
	a.ValidTo = to
	a.DiscountPercent = in.DiscountPercent
	a.Terms = strings.TrimSpace(in.Terms)
	return nil
}

type PriceProfileInput struct {
	Name    string           `json:"name"`
	BaseFee decimal.Decimal  `json:"base_fee"`
	PerKm   decimal.Decimal  `json:"per_km"`
	PerHour decimal.Decimal  `json:"per_hour"`
	VATRate *decimal.Decimal `json:"vat_rate"`
	Active  *bool            `json:"active"`
}

type EstimateInput struct {
	Km        decimal.Decimal `json:"km"`
	Hours     decimal.Decimal `json:"hours"`
	RoundTrip bool            `json:"round_trip"`
}

type PriceProfileService struct {
	Profiles       PriceProfileStore
	DefaultVATRate decimal.Decimal
	RequestID      string
}

func (s PriceProfileService) Create(ctx context.Context, in PriceProfileInput) (models.PriceProfile, error) {
	p := models.PriceProfile{ID: uuid.NewString(), Active: true, VATRate: s.DefaultVATRate}
	if err := applyPriceProfileInput(&p, in); err != nil {
		return models.PriceProfile{}, err
	}
	if err := s.Profiles.Insert(ctx, &p); err != nil {
		return models.PriceProfile{}, err
	}
	utils.LogEvent(s.RequestID, "price_profiles", "create", "name="+p.Name)
	return p, nil
}

func (s PriceProfileService) Get(ctx context.Context, id string) (models.PriceProfile, error) {
	return s.Profiles.GetByID(ctx, id)
}

func (s PriceProfileService) List(ctx context.Context) ([]models.PriceProfile, error) {
	return s.Profiles.List(ctx)
}

func (s PriceProfileService) Update(ctx context.Context, id string, in PriceProfileInput) (models.PriceProfile, error) {
	p, err := s.Profiles.GetByID(ctx, id)
	if err != nil {
		return models.PriceProfile{}, err
	}
	if err := applyPriceProfileInput(&p, in); err != nil {
		return models.PriceProfile{}, err
	}
	if err := s.Profiles.Update(ctx, &p); err != nil {
		return models.PriceProfile{}, err
	}
	return p, nil
}

// Estimate prices a trip with the profile's tariffs.
func (s PriceProfileService) Estimate(ctx context.Context, id string, in EstimateInput) (pricing.Breakdown, error) {
	p, err := s.Profiles.GetByID(ctx, id)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	if !p.Active {
		return pricing.Breakdown{}, domain.ConflictError{Resource: "price_profile", Msg: "profile is inactive"}
	}
	b, err := pricing.Estimate(pricing.Profile{
		BaseFee: p.BaseFee,
		PerKm:   p.PerKm,
		PerHour: p.PerHour,
		VATRate: p.VATRate,
	}, in.Km, in.Hours, in.RoundTrip)
	if err != nil {
		return pricing.Breakdown{}, domain.ValidationError{Field: "estimate", Msg: err.Error(), Err: err}
	}
	return b, nil
}

func applyPriceProfileInput(p *models.PriceProfile, in PriceProfileInput) error {
	name, err := requireText("name", in.Name)
	if err != nil {
		return err
	}
	for field, v := range map[string]decimal.Decimal{"base_fee": in.BaseFee, "per_km": in.PerKm, "per_hour": in.PerHour} {
		if v.IsNegative() {
			return domain.ValidationError{Field: field, Msg: "must not be negative"}
		}
	}
	if in.VATRate != nil {
		if in.VATRate.IsNegative() || in.VATRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return domain.ValidationError{Field: "vat_rate", Msg: "must be between 0 and 1"}
		}
		p.VATRate = *in.VATRate
	}
	p.Name = name
	p.BaseFee = in.BaseFee
	p.PerKm = in.PerKm
	p.PerHour = in.PerHour
	if in.Active != nil {
		p.Active = *in.Active
	}
	return nil
}

const roleAdmin = "admin"

// dummyHash keeps the login path equally slow for unknown emails.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type AuthService struct {
	Users     UserStore
	Tokens    TokenService
	RequestID string
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, domain.ValidationError{Field: "email", Msg: "email and password are required"}
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil && !domain.IsNotFound(err) {
		return LoginResult{}, err
	}
	hash := []byte(u.PasswordHash)
	if err != nil {
		hash = dummyHash
	}
	if cerr := bcrypt.CompareHashAndPassword(hash, []byte(password)); cerr != nil || err != nil {
		utils.LogEvent(s.RequestID, "auth", "login_failed", "email="+email)
		return LoginResult{}, domain.UnauthorizedError{Reason: domain.ReasonInvalid}
	}

	token, err := s.Tokens.IssueAdmin(domain.RequestContext{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return LoginResult{}, domain.InternalError{Msg: "could not issue token", Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "login", "email="+email)
	return LoginResult{Token: token, User: u}, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
func (s AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !domain.IsNotFound(err) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         utils.DefaultIfEmpty(name, "Admin"),
		PasswordHash: string(hash),
		Role:         roleAdmin,
	}
	if err := s.Users.Insert(ctx, &u); err != nil && !domain.IsConflict(err) {
		return err
	}
	utils.LogEvent(s.RequestID, "auth", "bootstrap_admin", "email="+email)
	return nil
}
