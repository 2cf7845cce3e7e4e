package store

import (
	"context"
	"sort"
	"sync"

	"care_tracker/internal/models"
	"care_tracker/internal/telemetry"
)

// MemoryStore keeps history, zones and devices in process. It backs tests and
// the replay command.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]models.HistoryRecord // per caregiver, in append order
	zones   map[string]map[string]models.SafeZone
	devices map[string]models.Device
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]models.HistoryRecord),
		zones:   make(map[string]map[string]models.SafeZone),
		devices: make(map[string]models.Device),
	}
}

func (s *MemoryStore) Append(_ context.Context, record *models.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.CaregiverID] = append(s.records[record.CaregiverID], *record)
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context, caregiverID string) (telemetry.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap telemetry.Snapshot
	records := s.records[caregiverID]
	if len(records) == 0 {
		return snap, nil
	}
	last := records[len(records)-1]
	snap.Latest = &last
	for _, r := range records {
		snap.TotalDistanceKm += r.DistanceTraveled
		if r.IsCheckpoint && (snap.LastCheckpointAt == nil || r.Timestamp.After(*snap.LastCheckpointAt)) {
			t := r.Timestamp
			snap.LastCheckpointAt = &t
		}
	}
	return snap, nil
}

func (s *MemoryStore) List(_ context.Context, caregiverID string, limit int) ([]models.HistoryRecord, error) {
	s.mu.RLock()
	out := append([]models.HistoryRecord(nil), s.records[caregiverID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryStore) Latest(_ context.Context, caregiverID string) (*models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.HistoryRecord
	for i := range s.records[caregiverID] {
		r := s.records[caregiverID][i]
		if latest == nil || !r.Timestamp.Before(latest.Timestamp) {
			latest = &r
		}
	}
	return latest, nil
}

func (s *MemoryStore) Stats(ctx context.Context, caregiverID string) (Stats, error) {
	s.mu.RLock()
	var stats Stats
	for _, r := range s.records[caregiverID] {
		stats.TotalRecords++
		if r.IsCheckpoint {
			stats.Checkpoints++
		}
		stats.TotalDistanceKm += r.DistanceTraveled
	}
	s.mu.RUnlock()

	latest, err := s.Latest(ctx, caregiverID)
	stats.Latest = latest
	return stats, err
}

func (s *MemoryStore) ZonesFor(_ context.Context, caregiverID string) ([]models.SafeZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zones := make([]models.SafeZone, 0, len(s.zones[caregiverID]))
	for _, z := range s.zones[caregiverID] {
		zones = append(zones, z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones, nil
}

// PutZone adds or replaces a zone.
func (s *MemoryStore) PutZone(zone models.SafeZone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zones[zone.CaregiverID] == nil {
		s.zones[zone.CaregiverID] = make(map[string]models.SafeZone)
	}
	s.zones[zone.CaregiverID][zone.ID] = zone
}

func (s *MemoryStore) RemoveZone(caregiverID, zoneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.zones[caregiverID], zoneID)
}

func (s *MemoryStore) FindDevice(_ context.Context, deviceID string) (*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.devices[deviceID]; ok {
		return &d, nil
	}
	return nil, nil
}

// PutDevice stores a device whose KeyHash is already set.
func (s *MemoryStore) PutDevice(device models.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[device.ID] = device
}
