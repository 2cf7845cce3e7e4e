package telemetry

import (
	"math"

	"care_tracker/internal/models"
)

// EarthRadiusKm is the mean radius of the sphere used for great-circle distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two positions in kilometers.
func DistanceKm(a, b models.Position) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// DistanceMeters is DistanceKm in meters.
func DistanceMeters(a, b models.Position) float64 {
	return DistanceKm(a, b) * 1000
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
