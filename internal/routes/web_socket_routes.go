package routes

import (
	"github.com/gin-gonic/gin"

	"care_tracker/internal/middleware"
)

func WebSocketRoutes(r *gin.Engine, d Deps) {
	wsRoutes := r.Group("/ws")
	wsRoutes.Use(middleware.RequireAuth(d.JWTSecret))
	{
		wsRoutes.GET("/location", d.Socket.HandleLocationWebSocket)
	}
}
