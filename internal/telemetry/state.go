package telemetry

import (
	"sync"

	"care_tracker/internal/models"
)

// caregiverState is the owned mutable cell for one caregiver. All fields are
// guarded by mu, which is held for the whole of an ingest.
type caregiverState struct {
	mu       sync.Mutex
	hydrated bool
	// baseline is the latest stored position found at hydration; containment is
	// derived from it on the first evaluation after a restart.
	baseline    *models.Position
	containment ContainmentState
	trip        TripAggregate
}

// stateRegistry hands out one cell per caregiver. Cells live for the lifetime of
// the process; the registry lock only covers the map lookup.
type stateRegistry struct {
	mu    sync.Mutex
	cells map[string]*caregiverState
}

func newStateRegistry() *stateRegistry {
	return &stateRegistry{cells: make(map[string]*caregiverState)}
}

func (r *stateRegistry) cell(caregiverID string) *caregiverState {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cells[caregiverID]
	if !ok {
		c = &caregiverState{}
		r.cells[caregiverID] = c
	}
	return c
}

func (r *stateRegistry) lookup(caregiverID string) (*caregiverState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cells[caregiverID]
	return c, ok
}
