package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidCredentials is returned when the gateway rejects a login.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthorizationError is returned when no valid session can be established.
// Callers treat it as a signal to send the user back to login.
type AuthorizationError struct {
	Reason string
	Err    error
}

func (e *AuthorizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not authorized: %s: %v", e.Reason, e.Err)
	}
	return "not authorized: " + e.Reason
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// Policy holds the tunable parts of expiry handling. The margin guards
// against clock skew and in-flight latency; Now is injectable for tests.
type Policy struct {
	ExpiryMargin time.Duration
	Now          func() time.Time
}

// DefaultPolicy matches the observed production behavior.
func DefaultPolicy() Policy {
	return Policy{
		ExpiryMargin: 15 * time.Second,
		Now:          time.Now,
	}
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Manager drives the session lifecycle against the gateway's auth endpoints.
// There is exactly one logical session per manager; concurrent refresh
// attempts are collapsed into a single in-flight call.
type Manager struct {
	store      *Store
	baseURL    string
	httpClient *http.Client
	policy     Policy

	refreshGroup singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy overrides the default expiry policy.
func WithPolicy(p Policy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithHTTPClient overrides the HTTP client used for the auth endpoints.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// NewManager creates a session manager. baseURL is the gateway root,
// without the /api/v1 prefix.
func NewManager(store *Store, baseURL string, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		policy:     DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store exposes the underlying session store.
func (m *Manager) Store() *Store { return m.store }

// tokenResponse is the wire shape of both login and refresh responses.
type tokenResponse struct {
	UserID       int64  `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Login authenticates with the gateway using HTTP Basic credentials and
// persists the resulting session, replacing any existing one.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/v1/auth/login", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(email, password)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("login rejected: %w", ErrInvalidCredentials)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("login failed: the service is unavailable, try again later (HTTP %d)", resp.StatusCode)
	}

	sess, err := m.decodeAndSave(resp.Body)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("userID", sess.UserID).Msg("logged in")

	return sess, nil
}

// Refresh exchanges a refresh token for a new session. When token is empty
// the stored session's refresh token is used. A gateway refusal returns
// (nil, nil) and clears the stored session; only network-level failures are
// returned as errors. Concurrent callers share a single refresh call.
func (m *Manager) Refresh(ctx context.Context, token string) (*Session, error) {
	v, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return m.refresh(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	sess, _ := v.(*Session)
	return sess, nil
}

func (m *Manager) refresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		token = m.store.RefreshToken()
	}
	if token == "" {
		return nil, nil
	}

	refreshURL := m.baseURL + "/api/v1/auth/refresh?token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, refreshURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().Int("status", resp.StatusCode).Msg("refresh rejected, clearing session")
		m.store.Clear()
		return nil, nil
	}

	sess, err := m.decodeAndSave(resp.Body)
	if err != nil {
		m.store.Clear()
		return nil, err
	}

	log.Debug().Int64("userID", sess.UserID).Msg("session refreshed")

	return sess, nil
}

// Ensure returns a session that is not past its expiry margin, refreshing
// when needed. It fails with an AuthorizationError when no valid session
// can be established.
func (m *Manager) Ensure(ctx context.Context) (*Session, error) {
	sess, err := m.store.Load()
	if errors.Is(err, ErrNoSession) {
		refreshed, rerr := m.Refresh(ctx, "")
		if rerr != nil {
			return nil, rerr
		}
		if refreshed == nil {
			return nil, &AuthorizationError{Reason: "no stored session"}
		}
		return refreshed, nil
	}
	if err != nil {
		return nil, err
	}

	if !sess.Expired(m.policy.now(), m.policy.ExpiryMargin) {
		return sess, nil
	}

	refreshed, err := m.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		return nil, &AuthorizationError{Reason: "session expired and refresh was rejected"}
	}
	return refreshed, nil
}

// Logout tells the gateway to revoke the session, then clears local state.
// The local session is cleared even when the gateway call fails.
func (m *Manager) Logout(ctx context.Context) error {
	sess, err := m.store.Load()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	defer m.store.Clear()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", sess.AuthorizationHeader())

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	log.Info().Int64("userID", sess.UserID).Msg("logged out")

	return nil
}

func (m *Manager) decodeAndSave(body io.Reader) (*Session, error) {
	var tr tokenResponse
	if err := json.NewDecoder(body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	sess := New(tr.UserID, tr.AccessToken, tr.RefreshToken, tr.TokenType)
	if err := m.store.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}
