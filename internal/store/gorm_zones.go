package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"care_tracker/internal/models"
)

// GormZoneStore reads safe zones. Zones are written by the zone management
// service, never by this one.
type GormZoneStore struct {
	db *gorm.DB
}

func NewGormZoneStore(db *gorm.DB) *GormZoneStore {
	return &GormZoneStore{db: db}
}

func (s *GormZoneStore) ZonesFor(ctx context.Context, caregiverID string) ([]models.SafeZone, error) {
	var zones []models.SafeZone
	if err := s.db.WithContext(ctx).Where("caregiver_id = ?", caregiverID).Order("id").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("list safe_zones: %w", err)
	}
	return zones, nil
}

type GormDeviceStore struct {
	db *gorm.DB
}

func NewGormDeviceStore(db *gorm.DB) *GormDeviceStore {
	return &GormDeviceStore{db: db}
}

func (s *GormDeviceStore) FindDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	var device models.Device
	err := s.db.WithContext(ctx).Where("id = ?", deviceID).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load device %s: %w", deviceID, err)
	}
	return &device, nil
}

// Register stores a device for caregiverID with a bcrypt hash of key.
func (s *GormDeviceStore) Register(ctx context.Context, device models.Device, key string) (*models.Device, error) {
	hash, err := HashDeviceKey(key)
	if err != nil {
		return nil, err
	}
	device.KeyHash = hash
	if err := s.db.WithContext(ctx).Create(&device).Error; err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}
	return &device, nil
}

// HashDeviceKey bcrypt-hashes a device key.
func HashDeviceKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("device key is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash device key: %w", err)
	}
	return string(hash), nil
}
