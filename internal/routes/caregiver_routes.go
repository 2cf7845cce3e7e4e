package routes

import (
	"github.com/gin-gonic/gin"

	"care_tracker/internal/middleware"
)

func CaregiverRoutes(r *gin.Engine, d Deps) {
	caregiver := r.Group("/caregiver")
	caregiver.Use(middleware.RequireAuth(d.JWTSecret))
	{
		caregiver.GET("/history", d.History.GetHistory)
		caregiver.GET("/latest", d.History.GetLatest)
		caregiver.GET("/stats", d.History.GetStats)
		caregiver.GET("/trip", d.History.GetTrip)
	}
}
