package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callouthq/dispatch/internal/api/domain"
)

// mustTime builds the evaluation clock in the given zone.
func mustTime(t *testing.T, zone, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(zone)
	require.NoError(t, err)
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return ts
}

func TestValidator_Validate_SameBusinessDay(t *testing.T) {
	v := NewValidator(DefaultConfig())
	// Monday 10 March 2025, 14:00 in London
	now := mustTime(t, "Europe/London", "2025-03-10 14:00")

	t.Run("today within window", func(t *testing.T) {
		result, err := v.Validate(Request{
			ServiceLevel:    domain.ServiceLevelSameBusinessDay,
			Date:            "2025-03-10",
			Time:            "14:30",
			Timezone:        "Europe/London",
			DurationMinutes: 60,
		}, now)

		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.False(t, result.OutOfHours)
		// Only 3 business hours remain at 14:00
		assert.NotEmpty(t, result.Warnings)
	})

	t.Run("tomorrow is rejected", func(t *testing.T) {
		result, err := v.Validate(Request{
			ServiceLevel:    domain.ServiceLevelSameBusinessDay,
			Date:            "2025-03-11",
			Time:            "14:30",
			Timezone:        "Europe/London",
			DurationMinutes: 60,
		}, now)

		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Reasons[0], "must be scheduled for today")
	})

	t.Run("start beyond four hours is rejected", func(t *testing.T) {
		result, err := v.Validate(Request{
			ServiceLevel:    domain.ServiceLevelSameBusinessDay,
			Date:            "2025-03-10",
			Time:            "18:30",
			Timezone:        "Europe/London",
			DurationMinutes: 60,
		}, now)

		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Reasons[0], "within 4 hours")
	})
}

func TestValidator_Validate_NextBusinessDay(t *testing.T) {
	v := NewValidator(DefaultConfig())
	now := mustTime(t, "Europe/London", "2025-03-10 14:00")

	t.Run("tomorrow is accepted", func(t *testing.T) {
		result, err := v.Validate(Request{
			ServiceLevel:    domain.ServiceLevelNextBusinessDay,
			Date:            "2025-03-11",
			Time:            "10:00",
			Timezone:        "Europe/London",
			DurationMinutes: 120,
		}, now)

		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.False(t, result.OutOfHours)
	})

	t.Run("today is rejected", func(t *testing.T) {
		result, err := v.Validate(Request{
			ServiceLevel:    domain.ServiceLevelNextBusinessDay,
			Date:            "2025-03-10",
			Time:            "10:00",
			Timezone:        "Europe/London",
			DurationMinutes: 120,
		}, now)

		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Reasons[0], "tomorrow")
	})
}

func TestValidator_Validate_Scheduled(t *testing.T) {
	v := NewValidator(DefaultConfig())
	now := mustTime(t, "Europe/London", "2025-03-10 14:00")

	t.Run("48 hours notice is enough", func(t *testing.T) {
		result, err := v.Validate(Request{
			ServiceLevel:    domain.ServiceLevelScheduled,
			Date:            "2025-03-20",
			Time:            "10:00",
			Timezone:        "Europe/London",
			DurationMinutes: 60,
		}, now)

		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("less than 48 hours is rejected", func(t *testing.T) {
		result, err := v.Validate(Request{
			ServiceLevel:    domain.ServiceLevelScheduled,
			Date:            "2025-03-11",
			Time:            "10:00",
			Timezone:        "Europe/London",
			DurationMinutes: 60,
		}, now)

		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Reasons[0], "48 hours")
	})
}

func TestValidator_Validate_OutOfHours(t *testing.T) {
	v := NewValidator(DefaultConfig())
	now := mustTime(t, "Europe/London", "2025-03-10 08:00")

	tests := []struct {
		name     string
		date     string
		start    string
		duration int
		want     bool
	}{
		{"weekday mid morning", "2025-03-20", "10:00", 60, false},
		{"before opening", "2025-03-20", "08:59", 30, true},
		{"after closing", "2025-03-20", "17:01", 30, true},
		{"start at closing with zero duration", "2025-03-20", "17:00", 0, false},
		{"crosses closing boundary", "2025-03-20", "16:59", 2, true},
		{"ends exactly at closing", "2025-03-20", "16:00", 60, false},
		{"saturday", "2025-03-15", "10:00", 60, true},
		{"sunday", "2025-03-16", "10:00", 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Validate(Request{
				ServiceLevel:    domain.ServiceLevelScheduled,
				Date:            tt.date,
				Time:            tt.start,
				Timezone:        "Europe/London",
				DurationMinutes: tt.duration,
			}, now)

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.OutOfHours)
		})
	}
}

func TestValidator_Validate_Errors(t *testing.T) {
	v := NewValidator(DefaultConfig())
	now := mustTime(t, "Europe/London", "2025-03-10 14:00")

	t.Run("missing fields", func(t *testing.T) {
		_, err := v.Validate(Request{
			ServiceLevel: domain.ServiceLevelScheduled,
			Date:         "2025-03-20",
		}, now)

		assert.ErrorIs(t, err, domain.ErrIncompleteSchedule)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		_, err := v.Validate(Request{
			ServiceLevel: domain.ServiceLevelScheduled,
			Date:         "2025-03-20",
			Time:         "10:00",
			Timezone:     "Mars/Olympus",
		}, now)

		assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	})

	t.Run("malformed time", func(t *testing.T) {
		_, err := v.Validate(Request{
			ServiceLevel: domain.ServiceLevelScheduled,
			Date:         "2025-03-20",
			Time:         "25:99",
			Timezone:     "Europe/London",
		}, now)

		assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	})

	t.Run("unknown service level", func(t *testing.T) {
		_, err := v.Validate(Request{
			ServiceLevel: "express",
			Date:         "2025-03-20",
			Time:         "10:00",
			Timezone:     "Europe/London",
		}, now)

		assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	})
}
