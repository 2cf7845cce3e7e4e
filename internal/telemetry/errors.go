package telemetry

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed sample. Nothing is persisted or notified.
	ErrValidation = errors.New("invalid location sample")
	// ErrPersistence marks a failed history append or snapshot read.
	ErrPersistence = errors.New("history persistence failed")
	// ErrZoneLookup marks an unavailable safe-zone source.
	ErrZoneLookup = errors.New("safe zone lookup failed")
)

// ValidationError names the offending field of a rejected sample.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type PersistenceError struct {
	CaregiverID string
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist history for caregiver %s: %v", e.CaregiverID, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

type ZoneLookupError struct {
	CaregiverID string
	Err         error
}

func (e *ZoneLookupError) Error() string {
	return fmt.Sprintf("load safe zones for caregiver %s: %v", e.CaregiverID, e.Err)
}

func (e *ZoneLookupError) Unwrap() []error { return []error{ErrZoneLookup, e.Err} }
