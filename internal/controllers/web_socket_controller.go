package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"care_tracker/internal/hub"
	"care_tracker/internal/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by the CORS layer
	},
}

// LocationSocketController pushes a caregiver's committed records and geofence
// events to their open dashboards.
type LocationSocketController struct {
	hub *hub.Hub
}

func NewLocationSocketController(h *hub.Hub) *LocationSocketController {
	return &LocationSocketController{hub: h}
}

// HandleLocationWebSocket upgrades an authenticated caregiver and streams updates
// until either side closes.
// @Router /ws/location [get]
// @Param token query string true "JWT token for authentication"
func (lc *LocationSocketController) HandleLocationWebSocket(c *gin.Context) {
	caregiverID := middleware.CaregiverID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	sub := lc.hub.Subscribe(caregiverID)
	defer sub.Close()

	fields := logrus.Fields{
		"caregiver_id":    caregiverID,
		"subscription_id": sub.ID(),
		"conn_ptr":        fmt.Sprintf("%p", conn),
	}
	logrus.WithFields(fields).Info("Caregiver WebSocket connection established (Monitoring).")

	done := make(chan struct{})
	go readUntilClosed(conn, fields, done)

	writeUpdates(conn, sub, fields, done)
	logrus.WithFields(fields).Info("Caregiver WebSocket connection closed.")
}

// readUntilClosed drains client frames so pongs and close frames are handled,
// and closes done when the connection goes away.
func readUntilClosed(conn *websocket.Conn, fields logrus.Fields, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithFields(fields).Info("Caregiver monitoring WebSocket closed normally.")
			} else {
				logrus.WithError(err).WithFields(fields).Debug("Caregiver monitoring WebSocket read ended.")
			}
			return
		}
		logrus.WithFields(fields).Warn("Caregiver client sent unexpected message. Ignoring.")
	}
}

func writeUpdates(conn *websocket.Conn, sub *hub.Subscription, fields logrus.Fields, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub shut down.
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				logrus.WithError(err).WithFields(fields).Warn("Failed to send location update to client.")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
