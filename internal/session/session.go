// Package session owns the authentication token lifecycle: the persisted
// session record, expiry detection from the access token's claims, proactive
// refresh, and the retry-once-on-401 request transport.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultScheme is the token scheme used when the gateway does not name one.
const DefaultScheme = "Bearer"

// Session is the stored authentication state for the single logged-in user.
type Session struct {
	UserID       int64  `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scheme       string `json:"token_type"`
	// ExpiresAt is the access token's expiry in epoch milliseconds, derived
	// exclusively from the token's exp claim. Zero means the token carries
	// no decodable expiry and is treated as never expiring.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// New builds a session from the gateway's login/refresh response fields.
// The scheme defaults to Bearer, matched case-insensitively.
func New(userID int64, accessToken, refreshToken, scheme string) *Session {
	if scheme == "" || strings.EqualFold(scheme, DefaultScheme) {
		scheme = DefaultScheme
	}
	return &Session{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Scheme:       scheme,
		ExpiresAt:    tokenExpiryMillis(accessToken),
	}
}

// Expired reports whether the session's access token is past its expiry
// minus the safety margin. Sessions without a decodable expiry never expire.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(margin).UnixMilli() >= s.ExpiresAt
}

// AuthorizationHeader returns the value for the Authorization header.
func (s *Session) AuthorizationHeader() string {
	return fmt.Sprintf("%s %s", s.Scheme, s.AccessToken)
}

// tokenExpiryMillis extracts the exp claim from the access token without
// verifying its signature; validation is the identity provider's job.
// Tokens that are not decodable JWTs, or carry no exp, yield zero.
func tokenExpiryMillis(token string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.UnixMilli()
}
