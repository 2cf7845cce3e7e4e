package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"care_tracker/internal/models"
	"care_tracker/internal/telemetry"
)

type GormHistoryStore struct {
	db *gorm.DB
}

func NewGormHistoryStore(db *gorm.DB) *GormHistoryStore {
	return &GormHistoryStore{db: db}
}

// Append inserts a record. Records are never updated afterwards.
func (s *GormHistoryStore) Append(ctx context.Context, record *models.HistoryRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("insert location_history %s: %w", record.ID, err)
	}
	return nil
}

func (s *GormHistoryStore) Snapshot(ctx context.Context, caregiverID string) (telemetry.Snapshot, error) {
	var snap telemetry.Snapshot
	db := s.db.WithContext(ctx)

	var last models.HistoryRecord
	err := db.Where("caregiver_id = ?", caregiverID).Order("created_at desc, timestamp desc").First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return snap, nil
	case err != nil:
		return snap, fmt.Errorf("load last record: %w", err)
	}
	snap.Latest = &last

	var checkpoint models.HistoryRecord
	err = db.Where("caregiver_id = ? AND is_checkpoint = ?", caregiverID, true).Order("timestamp desc").First(&checkpoint).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return snap, fmt.Errorf("load last checkpoint: %w", err)
	default:
		t := checkpoint.Timestamp
		snap.LastCheckpointAt = &t
	}

	total, err := s.totalDistance(db, caregiverID)
	if err != nil {
		return snap, err
	}
	snap.TotalDistanceKm = total
	return snap, nil
}

func (s *GormHistoryStore) List(ctx context.Context, caregiverID string, limit int) ([]models.HistoryRecord, error) {
	q := s.db.WithContext(ctx).Where("caregiver_id = ?", caregiverID).Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var records []models.HistoryRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list location_history: %w", err)
	}
	reverse(records)
	return records, nil
}

func (s *GormHistoryStore) Latest(ctx context.Context, caregiverID string) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	err := s.db.WithContext(ctx).Where("caregiver_id = ?", caregiverID).Order("timestamp desc").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest record: %w", err)
	}
	return &record, nil
}

func (s *GormHistoryStore) Stats(ctx context.Context, caregiverID string) (Stats, error) {
	var stats Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.HistoryRecord{}).Where("caregiver_id = ?", caregiverID).Count(&stats.TotalRecords).Error; err != nil {
		return stats, fmt.Errorf("count records: %w", err)
	}
	if err := db.Model(&models.HistoryRecord{}).Where("caregiver_id = ? AND is_checkpoint = ?", caregiverID, true).Count(&stats.Checkpoints).Error; err != nil {
		return stats, fmt.Errorf("count checkpoints: %w", err)
	}
	total, err := s.totalDistance(db, caregiverID)
	if err != nil {
		return stats, err
	}
	stats.TotalDistanceKm = total

	stats.Latest, err = s.Latest(ctx, caregiverID)
	return stats, err
}

func (s *GormHistoryStore) totalDistance(db *gorm.DB, caregiverID string) (float64, error) {
	var total float64
	err := db.Model(&models.HistoryRecord{}).
		Where("caregiver_id = ?", caregiverID).
		Select("COALESCE(SUM(distance_traveled), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum distance: %w", err)
	}
	return total, nil
}
