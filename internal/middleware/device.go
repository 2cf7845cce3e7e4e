package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"care_tracker/internal/store"
)

const (
	DeviceIDHeader  = "X-Device-ID"
	DeviceKeyHeader = "X-Device-Key"
	DeviceKey       = "device_id"
)

// RequireDevice authenticates a monitored device by id and key and binds the
// request to the device's caregiver.
func RequireDevice(devices store.DeviceFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.GetHeader(DeviceIDHeader)
		key := c.GetHeader(DeviceKeyHeader)
		if deviceID == "" || key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing device credentials"})
			return
		}

		device, err := devices.FindDevice(c.Request.Context(), deviceID)
		if err != nil {
			logrus.WithError(err).WithField("device_id", deviceID).Error("Device lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Device lookup failed"})
			return
		}
		if device == nil || bcrypt.CompareHashAndPassword([]byte(device.KeyHash), []byte(key)) != nil {
			logrus.WithField("device_id", deviceID).Warn("Rejected device credentials")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid device credentials"})
			return
		}

		c.Set(CaregiverKey, device.CaregiverID)
		c.Set(DeviceKey, device.ID)
		c.Next()
	}
}
