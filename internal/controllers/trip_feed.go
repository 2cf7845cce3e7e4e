package controllers

import (
	"time"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"care_tracker/internal/models"
)

// BuildTripFeed renders records (oldest first) as a trip line plus one point per
// checkpoint, and each safe zone as a point carrying its radius.
func BuildTripFeed(records []models.HistoryRecord, zones []models.SafeZone) (*gjson.FeatureCollection, error) {
	fc := &gjson.FeatureCollection{Features: []*gjson.Feature{}}

	if len(records) >= 2 {
		coords := make([]geom.Coord, 0, len(records))
		var distance float64
		for _, r := range records[1:] {
			distance += r.DistanceTraveled
		}
		for _, r := range records {
			coords = append(coords, geom.Coord{r.Longitude, r.Latitude})
		}
		line, err := geom.NewLineString(geom.XY).SetCoords(coords)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &gjson.Feature{
			ID:       "trip",
			Geometry: line,
			Properties: map[string]interface{}{
				"kind":        "trip",
				"started_at":  records[0].Timestamp.Format(time.RFC3339),
				"ended_at":    records[len(records)-1].Timestamp.Format(time.RFC3339),
				"distance_km": distance,
				"points":      len(records),
			},
		})
	}

	for i, r := range records {
		// A lone record is still worth drawing.
		if !r.IsCheckpoint && len(records) > 1 && i != len(records)-1 {
			continue
		}
		point, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{r.Longitude, r.Latitude})
		if err != nil {
			return nil, err
		}
		kind := "checkpoint"
		if !r.IsCheckpoint {
			kind = "latest"
		}
		fc.Features = append(fc.Features, &gjson.Feature{
			ID:       r.ID,
			Geometry: point,
			Properties: map[string]interface{}{
				"kind":              kind,
				"timestamp":         r.Timestamp.Format(time.RFC3339),
				"connection_status": r.ConnectionStatus,
				"battery_level":     r.BatteryLevel,
			},
		})
	}

	for _, z := range zones {
		point, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{z.Longitude, z.Latitude})
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &gjson.Feature{
			ID:       z.ID,
			Geometry: point,
			Properties: map[string]interface{}{
				"kind":           "safe_zone",
				"name":           z.Name,
				"radius_m":       z.Radius,
				"alert_on_entry": z.AlertOnEntry,
				"alert_on_exit":  z.AlertOnExit,
			},
		})
	}
	return fc, nil
}
