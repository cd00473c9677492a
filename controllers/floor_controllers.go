package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-reservation/hub"
	"github.com/yeremiapane/table-reservation/middlewares"
	"github.com/yeremiapane/table-reservation/workflow"
)

// FloorController streams table status changes to staff dashboards.
type FloorController struct {
	Hub      *hub.Hub
	Tables   TableReader
	Upgrader websocket.Upgrader
}

func NewFloorController(h *hub.Hub, tables TableReader, allowedOrigin string) *FloorController {
	return &FloorController{
		Hub:    h,
		Tables: tables,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// FloorHandler -> endpoint WebSocket
func (fc *FloorController) FloorHandler(c *gin.Context) {
	username := c.GetString(middlewares.CtxUsername)
	if username == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := fc.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	fc.Hub.Register(ws, username)

	// kirim snapshot awal sebelum event berikutnya
	if tables, err := fc.Tables.ListTables(c.Request.Context()); err == nil {
		_ = fc.Hub.Send(ws, hub.Message{
			Event: hub.EventFloorSnapshot,
			Data: gin.H{
				"tables":   newTableResponses(tables),
				"counters": workflow.CountTables(tables),
			},
		})
	}

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	fc.Hub.Unregister(ws)
}
