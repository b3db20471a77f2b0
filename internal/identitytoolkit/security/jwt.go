// Package security mints and validates the ID tokens the Identity Toolkit
// collaborator hands back to clients. Adapted from
// internal/auth/adapter/security's JWTokenService, trimmed of the
// tenant-scoped claim and multi-issuer configuration the emulator has no
// use for.
package security

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"firestore-emulator/internal/identitytoolkit/tokencache"
)

var ErrTokenInvalid = errors.New("id token is invalid")

// Claims is the ID token payload: just enough to resolve an account and, via
// ID, to revoke that specific token on account deletion.
type Claims struct {
	LocalID string `json:"local_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer implements identitytoolkit/usecase.TokenIssuer using HS256.
type JWTIssuer struct {
	secretKey []byte
	ttl       time.Duration
	revoked   tokencache.Cache
}

// NewJWTIssuer builds an issuer backed by tokencache.NewMemoryCache(); call
// WithCache to swap in a distributed one.
func NewJWTIssuer(secretKey string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secretKey: []byte(secretKey), ttl: ttl, revoked: tokencache.NewMemoryCache()}
}

// WithCache returns a copy of the issuer using cache for revocation
// tracking instead of its current one.
func (j *JWTIssuer) WithCache(cache tokencache.Cache) *JWTIssuer {
	return &JWTIssuer{secretKey: j.secretKey, ttl: j.ttl, revoked: cache}
}

func (j *JWTIssuer) Issue(localID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		LocalID: localID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "firestore-emulator",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

func (j *JWTIssuer) Parse(tokenString string) (string, error) {
	claims, err := j.parseClaims(tokenString)
	if err != nil {
		return "", err
	}
	revoked, err := j.revoked.IsRevoked(context.Background(), claims.ID)
	if err != nil || revoked {
		return "", ErrTokenInvalid
	}
	return claims.LocalID, nil
}

// Revoke blacklists tokenString's jti until its own expiry elapses, so a
// deleted account's outstanding tokens stop resolving immediately.
func (j *JWTIssuer) Revoke(tokenString string) error {
	claims, err := j.parseClaims(tokenString)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	return j.revoked.Revoke(context.Background(), claims.ID, ttl)
}

func (j *JWTIssuer) parseClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return j.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
