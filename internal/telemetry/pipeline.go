package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"care_tracker/internal/models"
	"care_tracker/internal/timeutil"
)

// HistoryStore is the append-only trip log.
type HistoryStore interface {
	Append(ctx context.Context, record *models.HistoryRecord) error
	// Snapshot summarizes stored history for a caregiver. A caregiver with no
	// history yields an empty snapshot, not an error.
	Snapshot(ctx context.Context, caregiverID string) (Snapshot, error)
}

// Snapshot is the stored state the pipeline rebuilds a caregiver's cell from.
type Snapshot struct {
	Latest           *models.HistoryRecord
	LastCheckpointAt *time.Time
	TotalDistanceKm  float64
}

// ZoneSource supplies the current safe zones of a caregiver.
type ZoneSource interface {
	ZonesFor(ctx context.Context, caregiverID string) ([]models.SafeZone, error)
}

// Notifier receives every committed record with its geofence events.
type Notifier interface {
	Notify(caregiverID string, record models.HistoryRecord, events []models.GeofenceEvent)
}

// Notifiers fans a notification out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(caregiverID string, record models.HistoryRecord, events []models.GeofenceEvent) {
	for _, n := range ns {
		if n != nil {
			n.Notify(caregiverID, record, events)
		}
	}
}

// Options tunes the pipeline. Zero values fall back to defaults.
type Options struct {
	StaleAfter          time.Duration
	LowBatteryThreshold float64
	CheckpointInterval  time.Duration
	// SilentInitialContainment records a caregiver's first containment without
	// emitting entry events.
	SilentInitialContainment bool
	// ZoneLookupFailOpen evaluates with no zones when the zone source fails,
	// instead of failing the ingest.
	ZoneLookupFailOpen bool
	Clock              timeutil.Clock
	NewID              func() string
}

func DefaultOptions() Options {
	return Options{
		StaleAfter:               DefaultStaleAfter,
		LowBatteryThreshold:      DefaultLowBatteryThreshold,
		CheckpointInterval:       DefaultCheckpointInterval,
		SilentInitialContainment: true,
		Clock:                    timeutil.RealClock{},
		NewID:                    uuid.NewString,
	}
}

// IngestResult is either accepted (Record set) or rejected (Rejection set).
type IngestResult struct {
	Record    *models.HistoryRecord
	Events    []models.GeofenceEvent
	Rejection *ValidationError
}

func (r IngestResult) Accepted() bool { return r.Record != nil }

// Pipeline turns location samples into history records and geofence events.
// Ingests for one caregiver are serialized; different caregivers run in parallel.
type Pipeline struct {
	history    HistoryStore
	zones      ZoneSource
	notifier   Notifier
	classifier Classifier
	opts       Options
	states     *stateRegistry
}

func NewPipeline(history HistoryStore, zones ZoneSource, notifier Notifier, opts Options) *Pipeline {
	if opts.CheckpointInterval <= 0 {
		opts.CheckpointInterval = DefaultCheckpointInterval
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Pipeline{
		history:    history,
		zones:      zones,
		notifier:   notifier,
		classifier: NewClassifier(opts.StaleAfter, opts.LowBatteryThreshold),
		opts:       opts,
		states:     newStateRegistry(),
	}
}

// Ingest validates, classifies, evaluates and aggregates one sample, appends the
// resulting record and then notifies subscribers.
//
// A rejected sample returns a result with Rejection set and a nil error. Store and
// zone failures return a *PersistenceError or *ZoneLookupError and leave the
// caregiver's state as it was. Cancelling ctx does not interrupt a started ingest.
func (p *Pipeline) Ingest(ctx context.Context, sample models.LocationSample) (IngestResult, error) {
	cand, err := ValidateSample(sample)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			verr = &ValidationError{Field: "sample", Reason: err.Error()}
		}
		logrus.WithFields(logrus.Fields{
			"caregiver_id": sample.CaregiverID,
			"field":        verr.Field,
			"reason":       verr.Reason,
		}).Warn("Location sample rejected.")
		return IngestResult{Rejection: verr}, nil
	}

	ctx = context.WithoutCancel(ctx)
	caregiverID := cand.CaregiverID

	cell := p.states.cell(caregiverID)
	cell.mu.Lock()
	defer cell.mu.Unlock()

	if !cell.hydrated {
		if err := p.hydrate(ctx, cell, caregiverID); err != nil {
			return IngestResult{}, err
		}
	}

	status := p.classifier.Classify(cand.Timestamp, cand.BatteryLevel, p.opts.Clock.Now())

	prior := cell.containment
	next := prior
	var events []models.GeofenceEvent

	zones, err := p.zones.ZonesFor(ctx, caregiverID)
	switch {
	case err != nil && !p.opts.ZoneLookupFailOpen:
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Safe zone lookup failed, rejecting ingest.")
		return IngestResult{}, &ZoneLookupError{CaregiverID: caregiverID, Err: err}
	case err != nil:
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Warn("Safe zone lookup failed, skipping geofence evaluation.")
	default:
		if prior == nil && cell.baseline != nil {
			prior, _ = EvaluateGeofences(caregiverID, *cell.baseline, cand.Timestamp, zones, nil, true)
		}
		next, events = EvaluateGeofences(caregiverID, cand.Position, cand.Timestamp, zones, prior, p.opts.SilentInitialContainment)
	}
	for i := range events {
		events[i].ID = p.opts.NewID()
	}

	trip, isCheckpoint, delta := AggregateTrip(cand.Position, cand.Timestamp, cell.trip, len(events) > 0, p.opts.CheckpointInterval)

	record := models.HistoryRecord{
		ID:               p.opts.NewID(),
		CaregiverID:      caregiverID,
		Latitude:         cand.Position.Latitude,
		Longitude:        cand.Position.Longitude,
		Timestamp:        cand.Timestamp,
		BatteryLevel:     cand.BatteryLevel,
		Speed:            cand.Speed,
		Accuracy:         cand.Accuracy,
		DeviceStatus:     cand.DeviceStatus,
		ConnectionStatus: status,
		IsCheckpoint:     isCheckpoint,
		DistanceTraveled: delta,
		CreatedAt:        p.opts.Clock.Now().UTC(),
	}

	if err := p.history.Append(ctx, &record); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"caregiver_id": caregiverID,
			"record_id":    record.ID,
		}).Error("Failed to append history record, state left unchanged.")
		return IngestResult{}, &PersistenceError{CaregiverID: caregiverID, Err: err}
	}

	// Committed: the cell may now move forward.
	cell.containment = next
	cell.trip = trip
	if next != nil {
		cell.baseline = nil
	}

	if p.notifier != nil {
		p.notifier.Notify(caregiverID, record, events)
	}

	logrus.WithFields(logrus.Fields{
		"caregiver_id":  caregiverID,
		"record_id":     record.ID,
		"status":        status,
		"checkpoint":    isCheckpoint,
		"distance_km":   delta,
		"geofence_hits": len(events),
	}).Debug("Location sample ingested.")

	return IngestResult{Record: &record, Events: events}, nil
}

// hydrate rebuilds a fresh cell from stored history so distance and checkpoint
// accounting survive a restart.
func (p *Pipeline) hydrate(ctx context.Context, cell *caregiverState, caregiverID string) error {
	snap, err := p.history.Snapshot(ctx, caregiverID)
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Failed to load history snapshot.")
		return &PersistenceError{CaregiverID: caregiverID, Err: err}
	}

	cell.trip = TripAggregate{CumulativeDistanceKm: snap.TotalDistanceKm}
	if snap.Latest != nil {
		pos := snap.Latest.Position()
		cell.trip.LastPosition = &pos
		cell.baseline = &pos
	}
	if snap.LastCheckpointAt != nil {
		t := *snap.LastCheckpointAt
		cell.trip.LastCheckpointAt = &t
	}
	cell.hydrated = true
	return nil
}

// Aggregate returns a copy of the in-process trip aggregate for a caregiver.
func (p *Pipeline) Aggregate(caregiverID string) (TripAggregate, bool) {
	cell, ok := p.states.lookup(caregiverID)
	if !ok {
		return TripAggregate{}, false
	}
	cell.mu.Lock()
	defer cell.mu.Unlock()
	if !cell.hydrated {
		return TripAggregate{}, false
	}
	return cell.trip.clone(), true
}

// Containment returns a copy of the caregiver's containment state, nil when the
// caregiver has not been evaluated yet.
func (p *Pipeline) Containment(caregiverID string) ContainmentState {
	cell, ok := p.states.lookup(caregiverID)
	if !ok {
		return nil
	}
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.containment.clone()
}
