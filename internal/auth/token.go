// ABOUTME: Reads the user ID and expiry out of a QuickChat session token
// ABOUTME: Signature is not verified; the server stays the authority

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrNoToken      = errors.New("no session token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims are the parts of the session token the client uses.
type Claims struct {
	UserID    string
	ExpiresAt time.Time // zero when the token has no exp claim
}

// Expired reports whether the token had expired at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes tokenString without verifying its signature and
// returns ErrExpiredToken if it has expired.
func ParseClaims(tokenString string) (Claims, error) {
	return parseClaimsAt(tokenString, time.Now())
}

func parseClaimsAt(tokenString string, now time.Time) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrNoToken
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, ok := mapClaims["userId"].(string)
	if !ok || userID == "" {
		return Claims{}, fmt.Errorf("%w: userId", ErrMissingClaim)
	}

	claims := Claims{UserID: userID}
	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: exp: %v", ErrInvalidToken, err)
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if claims.Expired(now) {
		return claims, ErrExpiredToken
	}
	return claims, nil
}
