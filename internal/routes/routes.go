package routes

import (
	"io"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"care_tracker/internal/controllers"
	"care_tracker/internal/store"
)

// Deps are the handlers and collaborators the router wires together.
type Deps struct {
	JWTSecret []byte
	Devices   store.DeviceFinder
	Telemetry *controllers.TelemetryController
	History   *controllers.HistoryController
	Socket    *controllers.LocationSocketController
	// AccessLog receives request logs; nil disables them.
	AccessLog io.Writer
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.AccessLog != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(d.AccessLog),
			ginlog.WithSkipPath([]string{"/health"}),
			ginlog.WithUTC(true),
		))
	}

	r.GET("/health", controllers.Health)
	TelemetryRoutes(r, d)
	CaregiverRoutes(r, d)
	WebSocketRoutes(r, d)

	return r
}
