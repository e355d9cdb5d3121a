package services

import (
	"testing"
	"time"

	"charter/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := TokenService{Secret: []byte("s3cret"), AdminTTL: time.Hour, OfferTTL: time.Hour}

	raw, err := svc.IssueAdmin(domain.RequestContext{UserID: "u1", Email: "admin@buss.example", Role: "admin"})
	require.NoError(t, err)
	rc, err := svc.VerifyAdmin(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", rc.UserID)
	assert.Equal(t, "admin@buss.example", rc.Email)
	assert.Equal(t, "admin", rc.Role)

	offer, err := svc.IssueOffer("o-1")
	require.NoError(t, err)
	id, err := svc.VerifyOffer(offer)
	require.NoError(t, err)
	assert.Equal(t, "o-1", id)
}

func TestTokenFailureReasons(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	svc := TokenService{Secret: []byte("s3cret"), AdminTTL: time.Hour, OfferTTL: time.Hour, Now: func() time.Time { return now }}

	admin, err := svc.IssueAdmin(domain.RequestContext{UserID: "u1"})
	require.NoError(t, err)
	offer, err := svc.IssueOffer("o-1")
	require.NoError(t, err)
	other := TokenService{Secret: []byte("other"), AdminTTL: time.Hour, Now: svc.Now}
	foreign, err := other.IssueAdmin(domain.RequestContext{UserID: "u1"})
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "purpose": "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name   string
		raw    string
		reason string
	}{
		{"missing", "  ", domain.ReasonMissing},
		{"garbage", "abc.def.ghi", domain.ReasonInvalid},
		{"wrong secret", foreign, domain.ReasonInvalid},
		{"alg none", none, domain.ReasonInvalid},
		{"offer token as admin", offer, domain.ReasonForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.VerifyAdmin(tc.raw)
			assert.Equal(t, tc.reason, domain.UnauthorizedReason(err))
		})
	}

	now = issued.Add(2 * time.Hour)
	_, err = svc.VerifyAdmin(admin)
	assert.Equal(t, domain.ReasonExpired, domain.UnauthorizedReason(err))
}
