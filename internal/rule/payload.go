package rule

import (
	"strings"

	"github.com/puntualdev/puntual/internal/timeutil"
)

// PayloadBlock is the persisted form of a TimeBlock: explicit enabled flag,
// nullable times, ISO day names.
type PayloadBlock struct {
	Enabled   bool     `json:"enabled"`
	LocalTime *string  `json:"local_time"`
	UTCTime   *string  `json:"utc_time"`
	Days      []string `json:"days"`
}

// PayloadLocation is the persisted geofence, with null-preserving numbers.
type PayloadLocation struct {
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters *int     `json:"radius_meters"`
}

// Payload is the wire shape written back to the gateway. It fully replaces
// the server-side rule; there are no partial updates.
type Payload struct {
	Active              bool            `json:"active"`
	RandomWindowMinutes *int            `json:"random_window_minutes"`
	PhoneNumber         *string         `json:"phone_number"`
	Entry               PayloadBlock    `json:"entry"`
	Exit                PayloadBlock    `json:"exit"`
	Location            PayloadLocation `json:"location"`
	Timezone            string          `json:"timezone"`
}

// ToPersisted translates the editable rule into its persisted payload.
// Disabled blocks are zeroed regardless of stale editable state; enabled
// blocks get canonical day order and a UTC time derived from the rule's
// timezone offset.
func ToPersisted(r Rule) Payload {
	offset := r.OffsetMinutes()
	return Payload{
		Active:              r.Active,
		RandomWindowMinutes: r.RandomWindowMinutes,
		PhoneNumber:         r.PhoneNumber,
		Entry:               persistBlock(r.Entry, offset),
		Exit:                persistBlock(r.Exit, offset),
		Location: PayloadLocation{
			Address:      strings.TrimSpace(r.Location.Address),
			Latitude:     r.Location.Latitude,
			Longitude:    r.Location.Longitude,
			RadiusMeters: r.Location.RadiusMeters,
		},
		Timezone: r.Timezone,
	}
}

func persistBlock(b TimeBlock, offsetMinutes int) PayloadBlock {
	if !b.Enabled {
		return PayloadBlock{Enabled: false, Days: []string{}}
	}

	out := PayloadBlock{Enabled: true, Days: make([]string, 0, len(b.Days))}
	for _, day := range timeutil.SortDays(b.Days) {
		out.Days = append(out.Days, timeutil.DayToISO(day))
	}

	local := strings.TrimSpace(b.LocalTime)
	if local != "" {
		out.LocalTime = &local
	}
	if utc := timeutil.ToUTC(local, offsetMinutes); utc != "" {
		out.UTCTime = &utc
	}
	return out
}
