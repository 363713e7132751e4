package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoStoredCredentials is returned when the gateway holds no attendance
// credentials for the user.
var ErrNoStoredCredentials = errors.New("no attendance credentials stored")

// TransportError is a non-2xx gateway response that is not handled by the
// session layer. The message shown to the user derives from the response
// body.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("gateway returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("gateway returned HTTP %d: %s", e.Status, body)
}

// statusOf returns the HTTP status carried by err, or 0.
func statusOf(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}
