package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTTL keeps device tokens valid long enough that a phone coming back
// from a weekend offline does not get logged out.
const defaultTTL = 30 * 24 * time.Hour

type claims struct {
	CoupleID int64 `json:"couple_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the signed bearer tokens devices present
// on every API call.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for a user. CoupleID may be zero for a user who has
// not paired yet; pairing issues a fresh token.
func (m *TokenManager) Issue(userID, coupleID int64) (string, error) {
	now := time.Now()
	c := claims{
		CoupleID: coupleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Verify parses and validates a token, returning the identity it carries.
func (m *TokenManager) Verify(token string) (AuthContext, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return AuthContext{}, fmt.Errorf("verify token: %w", err)
	}

	var userID int64
	if _, err := fmt.Sscan(c.Subject, &userID); err != nil || userID <= 0 {
		return AuthContext{}, fmt.Errorf("token subject %q is not a user id", c.Subject)
	}
	return AuthContext{UserID: userID, CoupleID: c.CoupleID}, nil
}
