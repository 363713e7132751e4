// Package rule models the attendance automation rule and translates between
// its three shapes: the editable in-memory model, the persisted gateway
// payload, and the loosely-typed inbound shapes the gateway has emitted over
// time.
package rule

import (
	"fmt"
	"strings"

	"github.com/puntualdev/puntual/internal/timeutil"
)

// TimeBlock is one of the two (entry/exit) scheduled-mark configurations.
type TimeBlock struct {
	Enabled   bool
	LocalTime string // "HH:MM", empty when unset
	UTCTime   *string
	Days      []string // weekday keys, canonical Mon..Sun order
}

// Location is the circular geofence inside which automated marks are valid.
type Location struct {
	Address      string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters *int
}

// Configured reports whether the geofence is fully defined.
func (l Location) Configured() bool {
	return l.Latitude != nil && l.Longitude != nil && l.RadiusMeters != nil && *l.RadiusMeters > 0
}

// Rule is the editable automation rule. It owns its entry and exit blocks
// and its location; they have no identity outside the rule.
type Rule struct {
	Active              bool
	RandomWindowMinutes *int
	PhoneNumber         *string
	Entry               TimeBlock
	Exit                TimeBlock
	Location            Location
	Timezone            string // label carrying a "UTC±HH:MM" offset
}

// OffsetMinutes returns the rule timezone's UTC offset in minutes.
func (r Rule) OffsetMinutes() int {
	return timeutil.OffsetMinutes(r.Timezone)
}

// ValidationError reports malformed local input. It is surfaced to the user
// before anything is sent to the gateway.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the rule draft for local input errors.
func (r Rule) Validate() error {
	if err := validateBlock("entry", r.Entry); err != nil {
		return err
	}
	if err := validateBlock("exit", r.Exit); err != nil {
		return err
	}
	if r.RandomWindowMinutes != nil && *r.RandomWindowMinutes < 0 {
		return &ValidationError{Field: "random_window_minutes", Message: "must be zero or positive"}
	}
	if r.Location.RadiusMeters != nil && *r.Location.RadiusMeters <= 0 {
		return &ValidationError{Field: "location.radius_meters", Message: "must be greater than zero"}
	}
	return nil
}

func validateBlock(name string, b TimeBlock) error {
	if !b.Enabled {
		return nil
	}
	if !timeutil.IsValidTime(b.LocalTime) {
		return &ValidationError{Field: name + ".local_time", Message: fmt.Sprintf("%q is not a valid HH:MM time", strings.TrimSpace(b.LocalTime))}
	}
	if len(b.Days) == 0 {
		return &ValidationError{Field: name + ".days", Message: "at least one day is required"}
	}
	return nil
}
