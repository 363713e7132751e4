package session

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Transport is an http.RoundTripper that attaches the session's
// Authorization header to every request and retries exactly once after a
// 401: one refresh, one replay, never a third network call regardless of
// the replay's outcome. A request whose body cannot be rewound (Body set
// but GetBody nil) is never replayed; the session is still refreshed so
// the caller's next request starts authorized, and the 401 is returned
// as-is.
type Transport struct {
	Manager *Manager
	Base    http.RoundTripper
}

// NewTransport wraps base with session authorization.
func NewTransport(manager *Manager, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Manager: manager, Base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	sess, err := t.Manager.Ensure(req.Context())
	if err != nil {
		return nil, err
	}

	resp, err := t.Base.RoundTrip(t.authorize(req, sess))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if req.Body != nil && req.GetBody == nil {
		// The body was consumed by the first attempt and cannot be
		// replayed. Refresh anyway so the next request starts with a
		// valid session, then hand the 401 back to the caller.
		log.Debug().Str("url", req.URL.String()).Msg("401 response on non-replayable request")
		if _, rerr := t.Manager.Refresh(req.Context(), sess.RefreshToken); rerr != nil {
			log.Debug().Err(rerr).Msg("refresh after non-replayable 401 failed")
		}
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	refreshed, err := t.Manager.Refresh(req.Context(), sess.RefreshToken)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		return nil, &AuthorizationError{Reason: "credentials rejected and refresh failed"}
	}

	log.Debug().Str("url", req.URL.String()).Msg("retrying request with refreshed session")

	return t.Base.RoundTrip(t.authorize(req, refreshed))
}

// authorize clones the request with auth headers set; RoundTrippers must
// not mutate the caller's request.
func (t *Transport) authorize(req *http.Request, sess *Session) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", sess.AuthorizationHeader())
	if id := t.Manager.Store().InstallID(); id != "" {
		out.Header.Set("X-Client-Id", id)
	}
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err == nil {
			out.Body = body
		}
	}
	return out
}
