// Package gateway is the REST client for the attendance-automation service.
// All requests go through the session transport, which owns authorization
// and the retry-once-on-401 behavior.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog/log"

	"github.com/puntualdev/puntual/internal/logger"
	"github.com/puntualdev/puntual/internal/rule"
	"github.com/puntualdev/puntual/internal/session"
)

const apiPrefix = "/api/v1"

// MarkAction selects which attendance mark to fire immediately.
type MarkAction string

const (
	MarkEntry MarkAction = "entrada"
	MarkExit  MarkAction = "salida"
)

// ParseMarkAction validates a user-supplied action string.
func ParseMarkAction(s string) (MarkAction, error) {
	switch MarkAction(s) {
	case MarkEntry, MarkExit:
		return MarkAction(s), nil
	}
	return "", fmt.Errorf("unknown mark action %q (want %q or %q)", s, MarkEntry, MarkExit)
}

// User is the authenticated account as reported by the gateway.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// CredentialsRequest carries attendance provider credentials to store. The
// password is write-only; it is never returned on fetch.
type CredentialsRequest struct {
	CompanyID int    `json:"company_id"`
	UserID    int    `json:"user_id"`
	Password  string `json:"password"`
}

// CredentialsResult is the gateway's response to storing credentials.
type CredentialsResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	CompanyID int    `json:"companyId"`
	UserID    int    `json:"userId"`
}

// StoredCredentials describes the credentials the gateway holds.
type StoredCredentials struct {
	CompanyID   int  `json:"companyId"`
	UserID      int  `json:"userId"`
	HasPassword bool `json:"hasPassword"`
}

// Config holds gateway client configuration.
type Config struct {
	// BaseURL is the gateway root, without the /api/v1 prefix.
	BaseURL string
	Timeout time.Duration
	// MaxTries bounds attempts for idempotent GETs hitting network-level
	// failures. HTTP error responses are never retried here. Zero means a
	// single attempt.
	MaxTries uint
	// Phone controls phone canonicalization of inbound rules.
	Phone rule.PhoneOptions
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:8080",
		Timeout:  30 * time.Second,
		MaxTries: 3,
	}
}

// Client calls the attendance gateway endpoints.
type Client struct {
	baseURL  string
	http     *http.Client
	cached   *http.Client
	maxTries uint
	phone    rule.PhoneOptions
}

// New creates a gateway client using the given session manager for
// authorization. The timezones endpoint is served through an in-memory
// caching transport since its content rarely changes.
func New(cfg Config, manager *session.Manager) *Client {
	authorized := session.NewTransport(manager, logger.NewHTTPRequests(log.Logger, nil))

	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = authorized

	maxTries := cfg.MaxTries
	if maxTries == 0 {
		maxTries = 1
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		http:     &http.Client{Transport: authorized, Timeout: cfg.Timeout},
		cached:   &http.Client{Transport: cacheTransport, Timeout: cfg.Timeout},
		maxTries: maxTries,
		phone:    cfg.Phone,
	}
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	data, err := c.getWithRetry(ctx, c.http, "/auth/me")
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &u, nil
}

// Rule fetches the automation rule and parses its loosely-shaped document
// into the editable model.
func (c *Client) Rule(ctx context.Context) (rule.Rule, error) {
	data, err := c.getWithRetry(ctx, c.http, "/attendance")
	if err != nil {
		return rule.Rule{}, err
	}
	return rule.ParseInbound(data, c.phone)
}

// SaveRule writes the persisted payload back, replacing the server-side
// rule wholesale.
func (c *Client) SaveRule(ctx context.Context, payload rule.Payload) error {
	_, err := c.do(ctx, c.http, http.MethodPut, "/attendance", payload)
	return err
}

// Timezones lists the timezone labels the gateway accepts.
func (c *Client) Timezones(ctx context.Context) ([]string, error) {
	data, err := c.getWithRetry(ctx, c.cached, "/timezones")
	if err != nil {
		return nil, err
	}
	var zones []string
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("failed to decode timezones: %w", err)
	}
	return zones, nil
}

// MarkNow triggers an immediate attendance mark.
func (c *Client) MarkNow(ctx context.Context, action MarkAction) error {
	if _, err := ParseMarkAction(string(action)); err != nil {
		return err
	}
	_, err := c.do(ctx, c.http, http.MethodPost, "/automation/manual", map[string]string{"action": string(action)})
	return err
}

// SaveCredentials stores the attendance provider credentials.
func (c *Client) SaveCredentials(ctx context.Context, req CredentialsRequest) (*CredentialsResult, error) {
	data, err := c.do(ctx, c.http, http.MethodPost, "/attendance/credentials", req)
	if err != nil {
		return nil, err
	}
	var result CredentialsResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode credentials result: %w", err)
	}
	return &result, nil
}

// Credentials fetches the stored attendance provider credentials. Returns
// ErrNoStoredCredentials when none are stored.
func (c *Client) Credentials(ctx context.Context) (*StoredCredentials, error) {
	data, err := c.getWithRetry(ctx, c.http, "/attendance/credentials")
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, ErrNoStoredCredentials
		}
		return nil, err
	}
	var creds StoredCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return &creds, nil
}

// do performs a single request and returns the response body. Non-2xx
// responses become a TransportError carrying the body text.
func (c *Client) do(ctx context.Context, client *http.Client, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// getWithRetry performs an idempotent GET, retrying only network-level
// failures with exponential backoff. Gateway error responses and
// authorization failures are permanent.
func (c *Client) getWithRetry(ctx context.Context, client *http.Client, path string) ([]byte, error) {
	return backoff.Retry(ctx, func() ([]byte, error) {
		data, err := c.do(ctx, client, http.MethodGet, path, nil)
		if err != nil && !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(c.maxTries))
}

func isTransient(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return false
	}
	var authErr *session.AuthorizationError
	return !errors.As(err, &authErr)
}
