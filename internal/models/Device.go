package models

import (
	"time"
)

// Device is a monitored device registered by a caregiver. KeyHash is a bcrypt
// hash of the key the device presents on every telemetry post.
type Device struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	CaregiverID string    `json:"caregiver_id" gorm:"index;size:64;not null"`
	Name        string    `json:"name"`
	KeyHash     string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
