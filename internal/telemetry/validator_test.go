package telemetry

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"care_tracker/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func validSample() models.LocationSample {
	return models.LocationSample{
		CaregiverID:  "cg-1",
		Latitude:     floatPtr(-1.2921),
		Longitude:    floatPtr(36.8219),
		Timestamp:    "2025-03-01T09:00:00Z",
		BatteryLevel: floatPtr(80),
	}
}

func TestValidateSample_Accepts(t *testing.T) {
	t.Parallel()

	s := validSample()
	s.CaregiverID = "  cg-1 "
	s.ConnectionStatus = "LOW_BATTERY"
	s.Speed = floatPtr(0)
	s.Accuracy = floatPtr(12.5)

	cand, err := ValidateSample(s)
	require.NoError(t, err)
	assert.Equal(t, "cg-1", cand.CaregiverID)
	assert.Equal(t, models.Position{Latitude: -1.2921, Longitude: 36.8219}, cand.Position)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), cand.Timestamp)
	assert.Equal(t, "low_battery", cand.DeviceStatus)
	require.NotNil(t, cand.BatteryLevel)
	assert.Equal(t, 80.0, *cand.BatteryLevel)

	// The candidate must not alias the caller's pointers.
	*s.BatteryLevel = 1
	assert.Equal(t, 80.0, *cand.BatteryLevel)
}

func TestValidateSample_Boundaries(t *testing.T) {
	t.Parallel()

	for _, s := range []models.LocationSample{
		{CaregiverID: "cg", Latitude: floatPtr(90), Longitude: floatPtr(180), Timestamp: "2025-03-01T09:00:00Z"},
		{CaregiverID: "cg", Latitude: floatPtr(-90), Longitude: floatPtr(-180), Timestamp: "2025-03-01T09:00:00Z"},
		{CaregiverID: "cg", Latitude: floatPtr(0), Longitude: floatPtr(0), Timestamp: "2025-03-01T09:00:00Z"},
		{CaregiverID: "cg", Latitude: floatPtr(1), Longitude: floatPtr(1), Timestamp: "2025-03-01T09:00:00Z", BatteryLevel: floatPtr(0)},
		{CaregiverID: "cg", Latitude: floatPtr(1), Longitude: floatPtr(1), Timestamp: "2025-03-01T09:00:00Z", BatteryLevel: floatPtr(100)},
	} {
		_, err := ValidateSample(s)
		assert.NoError(t, err, "%+v", s)
	}
}

func TestValidateSample_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edit  func(*models.LocationSample)
		field string
	}{
		{"missing caregiver", func(s *models.LocationSample) { s.CaregiverID = " " }, "caregiver_id"},
		{"missing latitude", func(s *models.LocationSample) { s.Latitude = nil }, "latitude"},
		{"missing longitude", func(s *models.LocationSample) { s.Longitude = nil }, "longitude"},
		{"latitude too large", func(s *models.LocationSample) { s.Latitude = floatPtr(200) }, "latitude"},
		{"latitude too small", func(s *models.LocationSample) { s.Latitude = floatPtr(-90.0001) }, "latitude"},
		{"latitude NaN", func(s *models.LocationSample) { s.Latitude = floatPtr(math.NaN()) }, "latitude"},
		{"longitude too large", func(s *models.LocationSample) { s.Longitude = floatPtr(180.5) }, "longitude"},
		{"longitude infinite", func(s *models.LocationSample) { s.Longitude = floatPtr(math.Inf(-1)) }, "longitude"},
		{"missing timestamp", func(s *models.LocationSample) { s.Timestamp = "" }, "timestamp"},
		{"garbage timestamp", func(s *models.LocationSample) { s.Timestamp = "yesterday" }, "timestamp"},
		{"battery above 100", func(s *models.LocationSample) { s.BatteryLevel = floatPtr(101) }, "battery_level"},
		{"negative battery", func(s *models.LocationSample) { s.BatteryLevel = floatPtr(-1) }, "battery_level"},
		{"negative speed", func(s *models.LocationSample) { s.Speed = floatPtr(-3) }, "speed"},
		{"negative accuracy", func(s *models.LocationSample) { s.Accuracy = floatPtr(-0.1) }, "accuracy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.edit(&s)

			_, err := ValidateSample(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateSample_DecodedPayloadWithoutCoordinates(t *testing.T) {
	t.Parallel()

	var s models.LocationSample
	require.NoError(t, json.Unmarshal([]byte(`{"caregiver_id":"cg-1","timestamp":"2025-03-01T09:00:00Z","battery_level":80}`), &s))

	_, err := ValidateSample(s)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "latitude", verr.Field)
	assert.Equal(t, "is required", verr.Reason)

	require.NoError(t, json.Unmarshal([]byte(`{"caregiver_id":"cg-1","latitude":0,"timestamp":"2025-03-01T09:00:00Z"}`), &s))
	_, err = ValidateSample(s)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "longitude", verr.Field)
	assert.Equal(t, "is required", verr.Reason)
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 3, 1, 9, 30, 15, 0, time.UTC)
	for _, raw := range []string{
		"2025-03-01T09:30:15Z",
		"2025-03-01T12:30:15+03:00",
		"2025-03-01T09:30:15",
		"2025-03-01 09:30:15",
		"2025-03-01 12:30:15+03:00",
		"1740821415",
	} {
		got, err := parseTimestamp(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s parsed as %s", raw, got)
		assert.Equal(t, time.UTC, got.Location(), raw)
	}

	got, err := parseTimestamp("2025-03-01T09:30:15.250Z")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, got.Sub(want))
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.StatusOnline, NormalizeStatus(" Online "))
	assert.Equal(t, models.StatusOffline, NormalizeStatus("offline"))
	assert.Equal(t, models.StatusLowBattery, NormalizeStatus("low_battery"))
	assert.Equal(t, models.ConnectionStatus(""), NormalizeStatus("charging"))
	assert.Equal(t, models.ConnectionStatus(""), NormalizeStatus(""))
}
