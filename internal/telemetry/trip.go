package telemetry

import (
	"time"

	"care_tracker/internal/models"
)

const DefaultCheckpointInterval = 15 * time.Minute

// TripAggregate is the running trip state for one caregiver.
type TripAggregate struct {
	LastPosition         *models.Position `json:"last_position,omitempty"`
	CumulativeDistanceKm float64          `json:"cumulative_distance_km"`
	LastCheckpointAt     *time.Time       `json:"last_checkpoint_at,omitempty"`
}

func (a TripAggregate) clone() TripAggregate {
	out := TripAggregate{CumulativeDistanceKm: a.CumulativeDistanceKm}
	if a.LastPosition != nil {
		p := *a.LastPosition
		out.LastPosition = &p
	}
	if a.LastCheckpointAt != nil {
		t := *a.LastCheckpointAt
		out.LastCheckpointAt = &t
	}
	return out
}

// AggregateTrip folds one accepted position into prior. It returns the updated
// aggregate, whether the record is a checkpoint and the distance delta in km.
//
// A record is a checkpoint when none has been recorded yet, when more than
// interval has elapsed (by sample time) since the last one, or when geofence
// events fired for it.
func AggregateTrip(
	pos models.Position,
	at time.Time,
	prior TripAggregate,
	hadEvents bool,
	interval time.Duration,
) (TripAggregate, bool, float64) {
	next := prior.clone()

	var delta float64
	if prior.LastPosition != nil {
		delta = DistanceKm(*prior.LastPosition, pos)
	}
	next.CumulativeDistanceKm += delta
	p := pos
	next.LastPosition = &p

	checkpoint := prior.LastCheckpointAt == nil ||
		at.Sub(*prior.LastCheckpointAt) > interval ||
		hadEvents
	// A late sample can still be a checkpoint but never rewinds the checkpoint clock.
	if checkpoint && (prior.LastCheckpointAt == nil || at.After(*prior.LastCheckpointAt)) {
		t := at
		next.LastCheckpointAt = &t
	}
	return next, checkpoint, delta
}
