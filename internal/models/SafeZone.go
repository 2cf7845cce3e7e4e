package models

import (
	"time"
)

// SafeZone is a caregiver-owned circular region. The telemetry core only reads zones.
type SafeZone struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	CaregiverID  string    `json:"caregiver_id" gorm:"index;size:64;not null"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Radius       float64   `json:"radius"` // meters
	AlertOnEntry bool      `json:"alert_on_entry"`
	AlertOnExit  bool      `json:"alert_on_exit"`
	CreatedAt    time.Time `json:"created_at"`
}

func (SafeZone) TableName() string {
	return "safe_zones"
}

func (z SafeZone) Center() Position {
	return Position{Latitude: z.Latitude, Longitude: z.Longitude}
}
