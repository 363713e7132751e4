package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTime(t *testing.T) {
	valid := []string{"00:00", "23:59", "08:05", " 12:30 ", "19:00"}
	for _, s := range valid {
		assert.True(t, IsValidTime(s), "expected %q to be valid", s)
	}

	invalid := []string{"", "24:00", "8:05", "08:60", "08:5", "0805", "ab:cd", "08:05:30"}
	for _, s := range invalid {
		assert.False(t, IsValidTime(s), "expected %q to be invalid", s)
	}
}

func TestOffsetMinutes(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"UTC-05:00 America/Lima", -300},
		{"UTC+00:00 UTC", 0},
		{"UTC+05:30 Asia/Kolkata", 330},
		{"UTC+13:00 Pacific/Tongatapu", 780},
		{"America/Lima (UTC-05:00)", -300},
		{"garbage", 0},
		{"", 0},
		{"UTC-5:00", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OffsetMinutes(tt.label), "label %q", tt.label)
	}
}

func TestToUTC(t *testing.T) {
	t.Run("conversion", func(t *testing.T) {
		assert.Equal(t, "13:05", ToUTC("08:05", -300))
		assert.Equal(t, "05:10", ToUTC("00:10", -300))
		assert.Equal(t, "08:05", ToUTC("08:05", 0))
		// Positive offsets wrap backwards through midnight.
		assert.Equal(t, "22:30", ToUTC("04:00", 330))
	})

	t.Run("invalid input", func(t *testing.T) {
		assert.Equal(t, "", ToUTC("", -300))
		assert.Equal(t, "", ToUTC("24:00", -300))
		assert.Equal(t, "", ToUTC("8:05", -300))
	})

	t.Run("round trip", func(t *testing.T) {
		for _, local := range []string{"00:00", "08:05", "12:00", "23:59"} {
			for _, offset := range []int{-720, -300, 0, 330, 780} {
				utc := ToUTC(local, offset)
				assert.Equal(t, local, ToUTC(utc, -offset), "local %s offset %d", local, offset)
			}
		}
	})
}

func TestSortDays(t *testing.T) {
	assert.Equal(t, []string{"Lun", "Mie", "Dom"}, SortDays([]string{"Dom", "Mie", "Lun"}))
	assert.Equal(t, []string{"Lun", "Mar"}, SortDays([]string{"Mar", "Lun", "Mar"}))
	// Unknown values sort after known ones, in incoming order.
	assert.Equal(t, []string{"Lun", "xx", "yy"}, SortDays([]string{"xx", "Lun", "yy"}))
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "—", FormatDays(nil))
	assert.Equal(t, "Lun–Dom", FormatDays(CanonicalDays()))
	assert.Equal(t, "Lun–Vie", FormatDays([]string{"Lun", "Mar", "Mie", "Jue", "Vie"}))
	assert.Equal(t, "Fin de semana", FormatDays([]string{"Sab", "Dom"}))
	assert.Equal(t, "Lun, Mie, Vie", FormatDays([]string{"Vie", "Lun", "Mie"}))
	assert.Equal(t, "Dom", FormatDays([]string{"Dom"}))
}

func TestDayISO(t *testing.T) {
	key, ok := DayFromISO("Monday")
	assert.True(t, ok)
	assert.Equal(t, "Lun", key)

	key, ok = DayFromISO(" friday ")
	assert.True(t, ok)
	assert.Equal(t, "Vie", key)

	_, ok = DayFromISO("someday")
	assert.False(t, ok)

	assert.Equal(t, "sunday", DayToISO("Dom"))
	assert.Equal(t, "??", DayToISO("??"))
}
