package rule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestToPersisted_DisabledBlockZeroed(t *testing.T) {
	r := Rule{
		Timezone: "UTC-05:00 America/Lima",
		Entry: TimeBlock{
			Enabled:   false,
			LocalTime: "09:00",
			Days:      []string{"Lun"},
		},
	}

	p := ToPersisted(r)

	assert.False(t, p.Entry.Enabled)
	assert.Nil(t, p.Entry.LocalTime)
	assert.Nil(t, p.Entry.UTCTime)
	assert.Equal(t, []string{}, p.Entry.Days)
}

func TestToPersisted_EnabledBlock(t *testing.T) {
	r := Rule{
		Active:   true,
		Timezone: "UTC-05:00 America/Lima",
		Entry: TimeBlock{
			Enabled:   true,
			LocalTime: " 08:05 ",
			Days:      []string{"Vie", "Lun", "Mie"},
		},
		Location: Location{
			Address:      "  Av. Arequipa 123  ",
			Latitude:     floatPtr(-12.04),
			Longitude:    floatPtr(-77.04),
			RadiusMeters: intPtr(150),
		},
	}

	p := ToPersisted(r)

	require.NotNil(t, p.Entry.LocalTime)
	assert.Equal(t, "08:05", *p.Entry.LocalTime)
	require.NotNil(t, p.Entry.UTCTime)
	assert.Equal(t, "13:05", *p.Entry.UTCTime)
	assert.Equal(t, []string{"monday", "wednesday", "friday"}, p.Entry.Days)
	assert.Equal(t, "Av. Arequipa 123", p.Location.Address)
	require.NotNil(t, p.Location.RadiusMeters)
	assert.Equal(t, 150, *p.Location.RadiusMeters)
}

func TestToPersisted_InvalidLocalTime(t *testing.T) {
	r := Rule{
		Timezone: "UTC+00:00",
		Entry: TimeBlock{
			Enabled:   true,
			LocalTime: "8:05",
			Days:      []string{"Lun"},
		},
	}

	p := ToPersisted(r)

	require.NotNil(t, p.Entry.LocalTime)
	assert.Equal(t, "8:05", *p.Entry.LocalTime)
	assert.Nil(t, p.Entry.UTCTime, "no UTC time is derivable from an invalid local time")
}

func TestTranslationRoundTrip(t *testing.T) {
	r := Rule{
		Active:              true,
		RandomWindowMinutes: intPtr(10),
		PhoneNumber:         strPtr("+51987654321"),
		Timezone:            "UTC-05:00 America/Lima",
		Entry: TimeBlock{
			Enabled:   true,
			LocalTime: "08:05",
			Days:      []string{"Lun", "Mar", "Mie", "Jue", "Vie"},
		},
		Exit: TimeBlock{
			Enabled:   true,
			LocalTime: "17:30",
			Days:      []string{"Lun", "Mar", "Mie", "Jue", "Vie"},
		},
		Location: Location{
			Address:      "Av. Arequipa 123",
			Latitude:     floatPtr(-12.04),
			Longitude:    floatPtr(-77.04),
			RadiusMeters: intPtr(150),
		},
	}

	data, err := json.Marshal(ToPersisted(r))
	require.NoError(t, err)

	parsed, err := ParseInbound(data, PhoneOptions{})
	require.NoError(t, err)

	assert.Equal(t, r.Active, parsed.Active)
	assert.Equal(t, r.Entry.Enabled, parsed.Entry.Enabled)
	assert.Equal(t, r.Entry.LocalTime, parsed.Entry.LocalTime)
	assert.Equal(t, r.Entry.Days, parsed.Entry.Days)
	assert.Equal(t, r.Exit.Enabled, parsed.Exit.Enabled)
	assert.Equal(t, r.Exit.LocalTime, parsed.Exit.LocalTime)
	assert.Equal(t, r.Exit.Days, parsed.Exit.Days)
	assert.Equal(t, r.PhoneNumber, parsed.PhoneNumber)
	assert.Equal(t, r.Location, parsed.Location)
	assert.Equal(t, r.Timezone, parsed.Timezone)
}

func TestValidate(t *testing.T) {
	base := Rule{
		Timezone: "UTC-05:00 America/Lima",
		Entry:    TimeBlock{Enabled: true, LocalTime: "08:00", Days: []string{"Lun"}},
		Exit:     TimeBlock{Enabled: false},
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base.Validate())
	})

	t.Run("bad time", func(t *testing.T) {
		r := base
		r.Entry.LocalTime = "25:00"
		var verr *ValidationError
		require.ErrorAs(t, r.Validate(), &verr)
		assert.Equal(t, "entry.local_time", verr.Field)
	})

	t.Run("no days", func(t *testing.T) {
		r := base
		r.Entry.Days = nil
		var verr *ValidationError
		require.ErrorAs(t, r.Validate(), &verr)
		assert.Equal(t, "entry.days", verr.Field)
	})

	t.Run("bad radius", func(t *testing.T) {
		r := base
		r.Location.RadiusMeters = intPtr(0)
		var verr *ValidationError
		require.ErrorAs(t, r.Validate(), &verr)
		assert.Equal(t, "location.radius_meters", verr.Field)
	})

	t.Run("negative random window", func(t *testing.T) {
		r := base
		r.RandomWindowMinutes = intPtr(-1)
		require.Error(t, r.Validate())
	})

	t.Run("disabled block skips time check", func(t *testing.T) {
		r := base
		r.Exit = TimeBlock{Enabled: false, LocalTime: "garbage"}
		assert.NoError(t, r.Validate())
	})
}
