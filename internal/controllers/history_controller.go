package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"care_tracker/internal/middleware"
	"care_tracker/internal/models"
	"care_tracker/internal/store"
	"care_tracker/internal/telemetry"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// LatestReader is a read-through source for the newest record, usually the redis cache.
type LatestReader interface {
	Get(ctx context.Context, caregiverID string) (*models.HistoryRecord, error)
}

// HistoryController serves the caregiver dashboard's read queries.
type HistoryController struct {
	history store.HistoryReader
	zones   telemetry.ZoneSource
	latest  LatestReader
}

func NewHistoryController(history store.HistoryReader, zones telemetry.ZoneSource, latest LatestReader) *HistoryController {
	return &HistoryController{history: history, zones: zones, latest: latest}
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, true
}

// GetHistory lists the most recent records, oldest first.
// @Router /caregiver/history [get]
func (hc *HistoryController) GetHistory(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	caregiverID := middleware.CaregiverID(c)

	records, err := hc.history.List(c.Request.Context(), caregiverID, limit)
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Failed to list location history.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching location history"})
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// GetLatest returns the newest record, from the cache when it has one.
// @Router /caregiver/latest [get]
func (hc *HistoryController) GetLatest(c *gin.Context) {
	caregiverID := middleware.CaregiverID(c)
	ctx := c.Request.Context()

	if hc.latest != nil {
		record, err := hc.latest.Get(ctx, caregiverID)
		if err != nil {
			logrus.WithError(err).WithField("caregiver_id", caregiverID).Warn("Latest-location cache read failed, falling back to database.")
		}
		if record != nil {
			c.JSON(http.StatusOK, gin.H{"data": record})
			return
		}
	}

	record, err := hc.history.Latest(ctx, caregiverID)
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Failed to load latest location.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching latest location"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No location recorded yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

// GetStats summarizes the trip log.
// @Router /caregiver/stats [get]
func (hc *HistoryController) GetStats(c *gin.Context) {
	caregiverID := middleware.CaregiverID(c)
	stats, err := hc.history.Stats(c.Request.Context(), caregiverID)
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Failed to compute trip stats.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error computing stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// GetTrip returns the recent trip as a GeoJSON FeatureCollection.
// @Router /caregiver/trip [get]
func (hc *HistoryController) GetTrip(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	caregiverID := middleware.CaregiverID(c)
	ctx := c.Request.Context()

	records, err := hc.history.List(ctx, caregiverID, limit)
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Failed to list location history for trip.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching trip"})
		return
	}
	zones, err := hc.zones.ZonesFor(ctx, caregiverID)
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Warn("Safe zones unavailable, trip rendered without them.")
		zones = nil
	}

	fc, err := BuildTripFeed(records, zones)
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Failed to build trip geometry.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error building trip"})
		return
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Failed to encode trip GeoJSON.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error encoding trip"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
