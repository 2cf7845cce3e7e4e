package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"care_tracker/internal/models"
)

// Candidate is a sample that passed validation, with its timestamp parsed.
type Candidate struct {
	CaregiverID  string
	Position     models.Position
	Timestamp    time.Time
	BatteryLevel *float64
	Speed        *float64
	Accuracy     *float64
	DeviceStatus string
}

// timestampLayouts are tried in order; layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ValidateSample normalizes a raw sample or returns a *ValidationError.
func ValidateSample(s models.LocationSample) (Candidate, error) {
	caregiverID := strings.TrimSpace(s.CaregiverID)
	if caregiverID == "" {
		return Candidate{}, &ValidationError{Field: "caregiver_id", Reason: "is required"}
	}
	// A missing coordinate must not decode into (0, 0).
	if s.Latitude == nil {
		return Candidate{}, &ValidationError{Field: "latitude", Reason: "is required"}
	}
	if s.Longitude == nil {
		return Candidate{}, &ValidationError{Field: "longitude", Reason: "is required"}
	}
	lat, lon := *s.Latitude, *s.Longitude
	if !finite(lat) || lat < -90 || lat > 90 {
		return Candidate{}, &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%v is outside [-90, 90]", lat)}
	}
	if !finite(lon) || lon < -180 || lon > 180 {
		return Candidate{}, &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%v is outside [-180, 180]", lon)}
	}

	ts, err := parseTimestamp(s.Timestamp)
	if err != nil {
		return Candidate{}, &ValidationError{Field: "timestamp", Reason: err.Error()}
	}

	if b := s.BatteryLevel; b != nil && (!finite(*b) || *b < 0 || *b > 100) {
		return Candidate{}, &ValidationError{Field: "battery_level", Reason: fmt.Sprintf("%v is outside [0, 100]", *b)}
	}
	if v := s.Speed; v != nil && (!finite(*v) || *v < 0) {
		return Candidate{}, &ValidationError{Field: "speed", Reason: "cannot be negative"}
	}
	if v := s.Accuracy; v != nil && (!finite(*v) || *v < 0) {
		return Candidate{}, &ValidationError{Field: "accuracy", Reason: "cannot be negative"}
	}

	return Candidate{
		CaregiverID:  caregiverID,
		Position:     models.Position{Latitude: lat, Longitude: lon},
		Timestamp:    ts,
		BatteryLevel: copyFloat(s.BatteryLevel),
		Speed:        copyFloat(s.Speed),
		Accuracy:     copyFloat(s.Accuracy),
		DeviceStatus: string(NormalizeStatus(s.ConnectionStatus)),
	}, nil
}

// NormalizeStatus maps a device-reported status hint onto the known set.
// Unknown values come back empty.
func NormalizeStatus(raw string) models.ConnectionStatus {
	switch status := models.ConnectionStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case models.StatusOnline, models.StatusOffline, models.StatusLowBattery:
		return status
	default:
		return ""
	}
}

func parseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("is required")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// Unix seconds
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse %q", raw)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
