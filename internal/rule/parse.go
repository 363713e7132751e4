package rule

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/puntualdev/puntual/internal/timeutil"
)

// The gateway's rule shape has varied historically between camelCase and
// snake_case field names. Each raw struct carries both variants as pointer
// fields; resolution order is camelCase first, snake_case second, then the
// type's zero default. Adding a third shape variant means adding a field
// and extending the pick call, not new parsing logic.

type rawTimeBlock struct {
	Enabled        *bool    `json:"enabled"`
	LocalTime      *string  `json:"localTime"`
	LocalTimeSnake *string  `json:"local_time"`
	UTCTime        *string  `json:"utcTime"`
	UTCTimeSnake   *string  `json:"utc_time"`
	Days           []string `json:"days"`
}

type rawLocation struct {
	Address           *string  `json:"address"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	RadiusMeters      *int     `json:"radiusMeters"`
	RadiusMetersSnake *int     `json:"radius_meters"`
}

type rawRule struct {
	Active                   *bool        `json:"active"`
	RandomWindowMinutes      *int         `json:"randomWindowMinutes"`
	RandomWindowMinutesSnake *int         `json:"random_window_minutes"`
	PhoneNumber              *string      `json:"phoneNumber"`
	PhoneNumberSnake         *string      `json:"phone_number"`
	Entry                    rawTimeBlock `json:"entry"`
	Exit                     rawTimeBlock `json:"exit"`
	Location                 rawLocation  `json:"location"`
	Timezone                 *string      `json:"timezone"`
}

// clockRe accepts "HH:MM" with optional trailing seconds, which are stripped.
var clockRe = regexp.MustCompile(`^(\d{2}:\d{2})(?::\d{2})?$`)

// ParseInbound decodes a rule document from the gateway into the editable
// model. It is deliberately permissive: either field-name convention is
// accepted, unknown day values pass through, and malformed optional fields
// degrade to their defaults.
func ParseInbound(data []byte, opts PhoneOptions) (Rule, error) {
	var raw rawRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return Rule{}, fmt.Errorf("failed to decode rule: %w", err)
	}

	r := Rule{
		Active:              boolOr(raw.Active, false),
		RandomWindowMinutes: pickInt(raw.RandomWindowMinutes, raw.RandomWindowMinutesSnake),
		PhoneNumber:         NormalizePhone(stringOr(pickString(raw.PhoneNumber, raw.PhoneNumberSnake), ""), opts),
		Timezone:            stringOr(raw.Timezone, ""),
		Location: Location{
			Address:      strings.TrimSpace(stringOr(raw.Location.Address, "")),
			Latitude:     raw.Location.Latitude,
			Longitude:    raw.Location.Longitude,
			RadiusMeters: pickInt(raw.Location.RadiusMeters, raw.Location.RadiusMetersSnake),
		},
	}
	offset := r.OffsetMinutes()
	r.Entry = parseBlock(raw.Entry, offset)
	r.Exit = parseBlock(raw.Exit, offset)
	return r, nil
}

func parseBlock(raw rawTimeBlock, offsetMinutes int) TimeBlock {
	b := TimeBlock{
		Enabled:   boolOr(raw.Enabled, false),
		LocalTime: normalizeClock(stringOr(pickString(raw.LocalTime, raw.LocalTimeSnake), "")),
		Days:      parseDays(raw.Days),
	}
	if utc := pickString(raw.UTCTime, raw.UTCTimeSnake); utc != nil {
		normalized := normalizeClock(*utc)
		if normalized != "" {
			b.UTCTime = &normalized
		}
	}
	// The UTC time is only authoritative when no local time came through;
	// shifting it back by the offset recovers the local representation.
	if b.LocalTime == "" && b.UTCTime != nil {
		b.LocalTime = timeutil.ToUTC(*b.UTCTime, -offsetMinutes)
	}
	return b
}

// parseDays maps recognized ISO weekday names to weekday keys, passes
// anything else through unchanged, and deduplicates the result.
func parseDays(values []string) []string {
	days := make([]string, 0, len(values))
	for _, v := range values {
		if key, ok := timeutil.DayFromISO(v); ok {
			days = append(days, key)
		} else {
			days = append(days, v)
		}
	}
	return timeutil.SortDays(days)
}

func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if m := clockRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func pickString(camel, snake *string) *string {
	if camel != nil {
		return camel
	}
	return snake
}

func pickInt(camel, snake *int) *int {
	if camel != nil {
		return camel
	}
	return snake
}

func stringOr(p *string, def string) string {
	if p != nil {
		return *p
	}
	return def
}

func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}
