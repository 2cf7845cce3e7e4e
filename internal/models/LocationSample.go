package models

// LocationSample is a single telemetry reading as it arrives from a monitored device.
// Timestamp is kept raw so the validator can reject unparsable values.
type LocationSample struct {
	CaregiverID      string   `json:"caregiver_id"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Timestamp        string   `json:"timestamp"`
	BatteryLevel     *float64 `json:"battery_level,omitempty"` // percent, 0-100
	Speed            *float64 `json:"speed,omitempty"`         // km/h
	Accuracy         *float64 `json:"accuracy,omitempty"`      // meters
	ConnectionStatus string   `json:"connection_status,omitempty"`
}

// Position is a WGS-84 coordinate pair in degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
