package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"care_tracker/internal/models"
)

func TestDistanceKm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b models.Position
		want float64
	}{
		{"same point", models.Position{Latitude: 1.5, Longitude: 36.8}, models.Position{Latitude: 1.5, Longitude: 36.8}, 0},
		{"one degree of longitude on the equator", models.Position{}, models.Position{Longitude: 1}, 111.195},
		{"one degree of latitude", models.Position{}, models.Position{Latitude: 1}, 111.195},
		{"antipodes", models.Position{}, models.Position{Longitude: 180}, 20015.087},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceKm(tt.a, tt.b), 0.01)
			assert.InDelta(t, tt.want, DistanceKm(tt.b, tt.a), 0.01, "distance is symmetric")
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	t.Parallel()
	d := DistanceMeters(models.Position{}, models.Position{Latitude: 0.001})
	assert.InDelta(t, 111.195, d, 0.01)
}
