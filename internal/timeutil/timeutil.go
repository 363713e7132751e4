// Package timeutil holds the pure time/day helpers the scheduling core is
// built on: "HH:MM" validation, UTC offset extraction from timezone labels,
// local to UTC conversion, and human-readable day-range labels.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Weekday keys in canonical order (Monday first).
const (
	Monday    = "Lun"
	Tuesday   = "Mar"
	Wednesday = "Mie"
	Thursday  = "Jue"
	Friday    = "Vie"
	Saturday  = "Sab"
	Sunday    = "Dom"
)

var canonicalDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// dayRank maps each weekday key to its canonical position.
var dayRank = map[string]int{
	Monday: 0, Tuesday: 1, Wednesday: 2, Thursday: 3, Friday: 4, Saturday: 5, Sunday: 6,
}

// isoToKey maps lowercase ISO weekday names to weekday keys.
var isoToKey = map[string]string{
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"saturday":  Saturday,
	"sunday":    Sunday,
}

var keyToISO = map[string]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
	Saturday:  "saturday",
	Sunday:    "sunday",
}

var (
	timeRe   = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	offsetRe = regexp.MustCompile(`UTC([+-])(\d{2}):(\d{2})`)
)

// CanonicalDays returns all seven weekday keys in Monday-first order.
func CanonicalDays() []string {
	days := make([]string, len(canonicalDays))
	copy(days, canonicalDays)
	return days
}

// IsDayKey reports whether s is one of the seven weekday keys.
func IsDayKey(s string) bool {
	_, ok := dayRank[s]
	return ok
}

// DayFromISO maps an ISO weekday name ("monday") to its weekday key ("Lun").
// The match is case-insensitive. Unrecognized names return ("", false).
func DayFromISO(name string) (string, bool) {
	key, ok := isoToKey[strings.ToLower(strings.TrimSpace(name))]
	return key, ok
}

// DayToISO maps a weekday key to its lowercase ISO name. Keys that are not
// recognized pass through unchanged.
func DayToISO(key string) string {
	if iso, ok := keyToISO[key]; ok {
		return iso
	}
	return key
}

// SortDays orders day keys canonically (Mon..Sun). Unrecognized values are
// kept after the known ones, in their incoming order.
func SortDays(days []string) []string {
	known := make([]string, 0, len(days))
	unknown := make([]string, 0)
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		if IsDayKey(d) {
			known = append(known, d)
		} else {
			unknown = append(unknown, d)
		}
	}
	for i := 1; i < len(known); i++ {
		for j := i; j > 0 && dayRank[known[j]] < dayRank[known[j-1]]; j-- {
			known[j], known[j-1] = known[j-1], known[j]
		}
	}
	return append(known, unknown...)
}

// IsValidTime reports whether s is a 24-hour "HH:MM" string. Surrounding
// whitespace is ignored.
func IsValidTime(s string) bool {
	return timeRe.MatchString(strings.TrimSpace(s))
}

// OffsetMinutes extracts the signed UTC offset, in minutes, from a timezone
// label such as "UTC-05:00 America/Lima". Labels without a recognizable
// offset degrade to 0 rather than failing; a missing or malformed offset is
// treated as UTC.
func OffsetMinutes(label string) int {
	m := offsetRe.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(m[3])
	if err != nil {
		return 0
	}
	total := hours*60 + minutes
	if m[1] == "-" {
		total = -total
	}
	return total
}

// ToUTC converts a local "HH:MM" time to UTC given the offset in minutes
// east of UTC. The result wraps around midnight. Invalid input returns the
// empty string.
func ToUTC(local string, offsetMinutes int) string {
	local = strings.TrimSpace(local)
	if !IsValidTime(local) {
		return ""
	}
	hour, _ := strconv.Atoi(local[:2])
	minute, _ := strconv.Atoi(local[3:])
	total := hour*60 + minute - offsetMinutes
	total = ((total % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatDays renders a set of day keys as a short label: "Lun–Dom" for the
// full week, "Lun–Vie" for the five weekdays, "Fin de semana" for exactly
// the weekend, "—" for an empty set, and a comma-joined list otherwise.
func FormatDays(days []string) string {
	sorted := SortDays(days)
	switch {
	case len(sorted) == 0:
		return "—"
	case equalDays(sorted, canonicalDays):
		return Monday + "–" + Sunday
	case equalDays(sorted, canonicalDays[:5]):
		return Monday + "–" + Friday
	case equalDays(sorted, canonicalDays[5:]):
		return "Fin de semana"
	default:
		return strings.Join(sorted, ", ")
	}
}

func equalDays(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
