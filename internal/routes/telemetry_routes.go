package routes

import (
	"github.com/gin-gonic/gin"

	"care_tracker/internal/middleware"
)

// TelemetryRoutes is the device ingress.
func TelemetryRoutes(r *gin.Engine, d Deps) {
	r.POST("/telemetry", middleware.RequireDevice(d.Devices), d.Telemetry.PostTelemetry)
}
