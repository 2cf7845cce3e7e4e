package models

import "time"

type GeofenceEventKind string

const (
	GeofenceEntry GeofenceEventKind = "entry"
	GeofenceExit  GeofenceEventKind = "exit"
)

// GeofenceEvent is a zone transition detected by the pipeline. It is emitted to
// subscribers and never persisted by the core.
type GeofenceEvent struct {
	ID          string            `json:"id"`
	CaregiverID string            `json:"caregiver_id"`
	ZoneID      string            `json:"zone_id"`
	ZoneName    string            `json:"zone_name"`
	Kind        GeofenceEventKind `json:"kind"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Position    Position          `json:"position"`
}
