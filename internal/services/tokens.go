package services

import (
	"errors"
	"strings"
	"time"

	"charter/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	purposeAdmin = "admin"
	purposeOffer = "offer"
)

type tokenClaims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens for admin sessions and for
// the customer links in offer emails.
type TokenService struct {
	Secret   []byte
	AdminTTL time.Duration
	OfferTTL time.Duration
	Now      func() time.Time
}

func (s TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s TokenService) issue(subject string, claims tokenClaims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s TokenService) parse(raw, purpose string) (tokenClaims, error) {
	var claims tokenClaims
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return claims, domain.UnauthorizedError{Reason: domain.ReasonMissing}
	}
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return claims, domain.UnauthorizedError{Reason: domain.ReasonExpired, Err: err}
	case err != nil:
		return claims, domain.UnauthorizedError{Reason: domain.ReasonInvalid, Err: err}
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return claims, domain.UnauthorizedError{Reason: domain.ReasonForbidden}
	}
	return claims, nil
}

// IssueOffer returns the token embedded in customer links for one offer.
func (s TokenService) IssueOffer(offerID string) (string, error) {
	return s.issue(offerID, tokenClaims{Purpose: purposeOffer}, s.OfferTTL)
}

// VerifyOffer returns the offer id the token was issued for.
func (s TokenService) VerifyOffer(raw string) (string, error) {
	claims, err := s.parse(raw, purposeOffer)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s TokenService) IssueAdmin(u domain.RequestContext) (string, error) {
	return s.issue(u.UserID, tokenClaims{Purpose: purposeAdmin, Email: u.Email, Role: u.Role}, s.AdminTTL)
}

func (s TokenService) VerifyAdmin(raw string) (domain.RequestContext, error) {
	claims, err := s.parse(raw, purposeAdmin)
	if err != nil {
		return domain.RequestContext{}, err
	}
	return domain.RequestContext{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
