package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"care_tracker/internal/middleware"
	"care_tracker/internal/models"
	"care_tracker/internal/telemetry"
)

// Ingester is satisfied by *telemetry.Pipeline.
type Ingester interface {
	Ingest(ctx context.Context, sample models.LocationSample) (telemetry.IngestResult, error)
}

type TelemetryController struct {
	pipeline Ingester
}

func NewTelemetryController(pipeline Ingester) *TelemetryController {
	return &TelemetryController{pipeline: pipeline}
}

// PostTelemetry ingests one sample from an authenticated device.
// @Router /telemetry [post]
func (tc *TelemetryController) PostTelemetry(c *gin.Context) {
	var sample models.LocationSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location payload: " + err.Error()})
		return
	}

	// The device decides whose sample this is.
	caregiverID := middleware.CaregiverID(c)
	sample.CaregiverID = strings.TrimSpace(sample.CaregiverID)
	if sample.CaregiverID == "" {
		sample.CaregiverID = caregiverID
	}
	if sample.CaregiverID != caregiverID {
		logrus.WithFields(logrus.Fields{
			"device_id":            c.GetString(middleware.DeviceKey),
			"device_caregiver_id":  caregiverID,
			"payload_caregiver_id": sample.CaregiverID,
		}).Warn("Device attempted to post location for another caregiver. Denying.")
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized location update."})
		return
	}

	result, err := tc.pipeline.Ingest(c.Request.Context(), sample)
	switch {
	case errors.Is(err, telemetry.ErrZoneLookup):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Safe zones are unavailable, try again later."})
		return
	case errors.Is(err, telemetry.ErrPersistence):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Location could not be stored, try again later."})
		return
	case err != nil:
		logrus.WithError(err).WithField("caregiver_id", caregiverID).Error("Unexpected ingest failure.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
		return
	}

	if !result.Accepted() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": result.Rejection.Error(),
			"field": result.Rejection.Field,
		})
		return
	}

	events := result.Events
	if events == nil {
		events = []models.GeofenceEvent{}
	}
	c.JSON(http.StatusCreated, gin.H{"record": result.Record, "events": events})
}
