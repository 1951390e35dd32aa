package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiresAt reads the exp claim out of an access token without
// verifying the signature. Verification belongs to the backend; the client
// only wants to know when a refresh is due.
func TokenExpiresAt(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry")
	}
	return exp.Time, nil
}

// TokenExpired reports whether the access token's exp claim has passed.
// Unparseable tokens read as expired.
func TokenExpired(token string, now time.Time) bool {
	exp, err := TokenExpiresAt(token)
	if err != nil {
		return true
	}
	return now.After(exp)
}
