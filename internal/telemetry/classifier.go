package telemetry

import (
	"time"

	"care_tracker/internal/models"
)

const (
	DefaultStaleAfter          = 5 * time.Minute
	DefaultLowBatteryThreshold = 15.0
)

// Classifier derives a device status from a sample and how old it is.
type Classifier struct {
	StaleAfter          time.Duration
	LowBatteryThreshold float64
}

func NewClassifier(staleAfter time.Duration, lowBattery float64) Classifier {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if lowBattery <= 0 {
		lowBattery = DefaultLowBatteryThreshold
	}
	return Classifier{StaleAfter: staleAfter, LowBatteryThreshold: lowBattery}
}

// Classify applies, in order: staleness, low battery, online.
// A stale reading is offline whatever its battery says.
func (c Classifier) Classify(ts time.Time, battery *float64, now time.Time) models.ConnectionStatus {
	if now.Sub(ts) > c.StaleAfter {
		return models.StatusOffline
	}
	if battery != nil && *battery < c.LowBatteryThreshold {
		return models.StatusLowBattery
	}
	return models.StatusOnline
}
