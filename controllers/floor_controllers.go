package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-seating/broadcast"
	"github.com/yeremiapane/restaurant-seating/middlewares"
)

// FloorController streams seating events to front-of-house terminals.
type FloorController struct {
	Hub      *broadcast.Hub
	upgrader websocket.Upgrader
}

// NewFloorController accepts upgrades from origin, or from anywhere when
// origin is "*".
func NewFloorController(hub *broadcast.Hub, origin string) *FloorController {
	return &FloorController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return origin == "*" || r.Header.Get("Origin") == origin
			},
		},
	}
}

// FloorHandler -> websocket endpoint
func (fc *FloorController) FloorHandler(c *gin.Context) {
	terminal := c.GetString(middlewares.TerminalKey)

	ws, err := fc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	fc.Hub.Register(ws, terminal)

	// terminals only listen; reading detects the disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	fc.Hub.Unregister(ws)
}
