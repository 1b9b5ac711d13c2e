package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rawblock/kyt-engine/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all for the local dev dashboard
	},
}

// Hub fans a stream of finished RiskReports out to connected dev-
// dashboard clients, grounded on the teacher's websocket Hub
// (same broadcast-channel-plus-client-set shape), adapted to push
// RiskReports instead of CoinJoin alerts.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan models.RiskReport
	mutex     sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan models.RiskReport, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) Run() {
	for report := range h.broadcast {
		payload, err := json.Marshal(report)
		if err != nil {
			log.Printf("kyt hub: failed to marshal report for broadcast: %v", err)
			continue
		}
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("kyt hub: websocket write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades the request to a websocket and registers the
// connection for broadcast.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("kyt hub: failed to upgrade websocket: %v", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()

	log.Printf("kyt hub: client connected, total=%d", len(h.clients))

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("kyt hub: client disconnected, total=%d", len(h.clients))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("kyt hub: websocket error: %v", err)
				}
				break
			}
		}
	}()
}

// Broadcast pushes a finished RiskReport to every connected client.
func (h *Hub) Broadcast(report models.RiskReport) {
	h.broadcast <- report
}
