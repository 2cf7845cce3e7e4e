// Package store persists the trip log and reads safe zones and devices.
package store

import (
	"context"

	"care_tracker/internal/models"
	"care_tracker/internal/telemetry"
)

// Stats summarizes a caregiver's trip log for the dashboard.
type Stats struct {
	TotalRecords    int64                 `json:"total_records"`
	Checkpoints     int64                 `json:"checkpoints"`
	TotalDistanceKm float64               `json:"total_distance_km"`
	Latest          *models.HistoryRecord `json:"latest,omitempty"`
}

// HistoryReader serves read queries over the trip log.
type HistoryReader interface {
	// List returns up to limit of the most recent records, oldest first.
	// A non-positive limit returns everything.
	List(ctx context.Context, caregiverID string, limit int) ([]models.HistoryRecord, error)
	// Latest returns the record with the newest timestamp, or nil.
	Latest(ctx context.Context, caregiverID string) (*models.HistoryRecord, error)
	Stats(ctx context.Context, caregiverID string) (Stats, error)
}

// History is the full trip log contract.
type History interface {
	telemetry.HistoryStore
	HistoryReader
}

// DeviceFinder resolves devices for ingress authentication.
type DeviceFinder interface {
	// FindDevice returns nil, nil when the device does not exist.
	FindDevice(ctx context.Context, deviceID string) (*models.Device, error)
}

func reverse(records []models.HistoryRecord) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
