package telemetry

import (
	"sort"
	"time"

	"care_tracker/internal/models"
)

// Containment is the last evaluated inside/outside fact for one zone.
type Containment struct {
	Inside      bool
	EvaluatedAt time.Time
}

// ContainmentState maps zone id to containment for one caregiver. A nil state
// means the caregiver has never been evaluated.
type ContainmentState map[string]Containment

func (s ContainmentState) clone() ContainmentState {
	if s == nil {
		return nil
	}
	out := make(ContainmentState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ZoneContains reports whether pos lies within the zone's radius.
func ZoneContains(zone models.SafeZone, pos models.Position) bool {
	if zone.Radius <= 0 {
		return false
	}
	return DistanceMeters(pos, zone.Center()) <= zone.Radius
}

// EvaluateGeofences tests pos against every zone in id order and returns the new
// containment state plus any entry/exit events. Event ids are left empty.
//
// With silentInitial set and a nil prior, containment is recorded without events.
// Alert flags only gate emission: the state always follows the geometry, so
// entry and exit alternate per zone.
func EvaluateGeofences(
	caregiverID string,
	pos models.Position,
	at time.Time,
	zones []models.SafeZone,
	prior ContainmentState,
	silentInitial bool,
) (ContainmentState, []models.GeofenceEvent) {
	ordered := make([]models.SafeZone, len(zones))
	copy(ordered, zones)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	silent := prior == nil && silentInitial
	next := make(ContainmentState, len(ordered))
	var events []models.GeofenceEvent

	for _, zone := range ordered {
		if zone.Radius <= 0 {
			continue
		}
		inside := ZoneContains(zone, pos)
		next[zone.ID] = Containment{Inside: inside, EvaluatedAt: at}

		wasInside := prior[zone.ID].Inside
		if silent || inside == wasInside {
			continue
		}

		var kind models.GeofenceEventKind
		switch {
		case inside && zone.AlertOnEntry:
			kind = models.GeofenceEntry
		case !inside && zone.AlertOnExit:
			kind = models.GeofenceExit
		default:
			continue
		}
		events = append(events, models.GeofenceEvent{
			CaregiverID: caregiverID,
			ZoneID:      zone.ID,
			ZoneName:    zone.Name,
			Kind:        kind,
			OccurredAt:  at,
			Position:    pos,
		})
	}
	return next, events
}
