package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func tokenWithoutExpiry(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestNew(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("derives expiry from token", func(t *testing.T) {
		sess := New(42, signedToken(t, exp), "refresh", "bearer")
		assert.Equal(t, int64(42), sess.UserID)
		assert.Equal(t, "Bearer", sess.Scheme, "scheme normalizes case-insensitively")
		assert.Equal(t, exp.UnixMilli(), sess.ExpiresAt)
	})

	t.Run("empty scheme defaults to Bearer", func(t *testing.T) {
		sess := New(42, signedToken(t, exp), "refresh", "")
		assert.Equal(t, "Bearer", sess.Scheme)
	})

	t.Run("custom scheme preserved", func(t *testing.T) {
		sess := New(42, signedToken(t, exp), "refresh", "MAC")
		assert.Equal(t, "MAC", sess.Scheme)
	})

	t.Run("opaque token never expires", func(t *testing.T) {
		sess := New(42, "not-a-jwt", "refresh", "Bearer")
		assert.Zero(t, sess.ExpiresAt)
		assert.False(t, sess.Expired(time.Now().Add(100*24*time.Hour), 15*time.Second))
	})

	t.Run("token without exp never expires", func(t *testing.T) {
		sess := New(42, tokenWithoutExpiry(t), "refresh", "Bearer")
		assert.Zero(t, sess.ExpiresAt)
	})
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	margin := 15 * time.Second

	t.Run("fresh token", func(t *testing.T) {
		sess := New(1, signedToken(t, now.Add(time.Hour)), "r", "")
		assert.False(t, sess.Expired(now, margin))
	})

	t.Run("past expiry", func(t *testing.T) {
		sess := New(1, signedToken(t, now.Add(-time.Second)), "r", "")
		assert.True(t, sess.Expired(now, margin))
	})

	t.Run("inside the safety margin", func(t *testing.T) {
		sess := New(1, signedToken(t, now.Add(10*time.Second)), "r", "")
		assert.True(t, sess.Expired(now, margin))
	})
}

func TestSession_AuthorizationHeader(t *testing.T) {
	sess := &Session{Scheme: "Bearer", AccessToken: "abc"}
	assert.Equal(t, "Bearer abc", sess.AuthorizationHeader())
}
