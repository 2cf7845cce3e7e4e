package models

import (
	"time"
)

// ConnectionStatus is the classified state of a monitored device.
type ConnectionStatus string

const (
	StatusOnline     ConnectionStatus = "online"
	StatusOffline    ConnectionStatus = "offline"
	StatusLowBattery ConnectionStatus = "low_battery"
)

// HistoryRecord is an accepted sample enriched by the pipeline. Rows are append-only.
type HistoryRecord struct {
	ID               string           `json:"id" gorm:"primaryKey;size:36"`
	CaregiverID      string           `json:"caregiver_id" gorm:"index:idx_history_caregiver_ts,priority:1;size:64;not null"`
	Latitude         float64          `json:"latitude"`
	Longitude        float64          `json:"longitude"`
	Timestamp        time.Time        `json:"timestamp" gorm:"index:idx_history_caregiver_ts,priority:2"`
	BatteryLevel     *float64         `json:"battery_level,omitempty"`
	Speed            *float64         `json:"speed,omitempty"`    // km/h
	Accuracy         *float64         `json:"accuracy,omitempty"` // meters
	DeviceStatus     string           `json:"device_status,omitempty"`
	ConnectionStatus ConnectionStatus `json:"connection_status" gorm:"size:16"`
	IsCheckpoint     bool             `json:"is_checkpoint" gorm:"index"`
	DistanceTraveled float64          `json:"distance_traveled"` // km since previous record
	CreatedAt        time.Time        `json:"created_at"`
}

func (HistoryRecord) TableName() string {
	return "location_history"
}

// Position returns the record's coordinates.
func (r HistoryRecord) Position() Position {
	return Position{Latitude: r.Latitude, Longitude: r.Longitude}
}
