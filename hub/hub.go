package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/workflow"
)

// Event types
const (
	EventTableStatusChanged = "table_status_changed"
	EventFloorSnapshot      = "floor_snapshot"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// TableStatusEvent is pushed to every dashboard after a status change.
type TableStatusEvent struct {
	TableID        uint                 `json:"table_id"`
	Status         workflow.TableStatus `json:"status"`
	PreviousStatus workflow.TableStatus `json:"previous_status"`
	Guests         int                  `json:"guests"`
	Time           *string              `json:"time"`
	Counters       workflow.Counters    `json:"counters"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// DefaultWriteWait bounds a single write to one dashboard.
const DefaultWriteWait = 5 * time.Second

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// deadliner is implemented by *websocket.Conn.
type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Hub tracks connected dashboards. Writes happen under the hub lock so a
// connection never has two concurrent writers. Each write gets a deadline, so
// a stalled client is dropped instead of holding up the broadcast.
type Hub struct {
	WriteWait time.Duration

	clients map[Conn]string // conn -> username
	mutex   sync.Mutex
	log     logrus.FieldLogger
	now     func() time.Time
}

func New(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		WriteWait: DefaultWriteWait,
		clients:   make(map[Conn]string),
		log:       log,
		now:       time.Now,
	}
}

func (h *Hub) Register(conn Conn, username string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = username
}

func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Send writes one message to a single connection.
func (h *Hub) Send(conn Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.write(conn, data)
}

// write must be called with the hub lock held.
func (h *Hub) write(conn Conn, data []byte) error {
	if d, ok := conn.(deadliner); ok && h.WriteWait > 0 {
		if err := d.SetWriteDeadline(h.now().Add(h.WriteWait)); err != nil {
			return err
		}
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Broadcast sends msg to every client and drops the ones that fail. It
// returns the number of successful deliveries.
func (h *Hub) Broadcast(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("marshal hub message")
		return 0
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for conn, username := range h.clients {
		if err := h.write(conn, data); err != nil {
			h.log.WithError(err).WithField("username", username).Warn("dropping dashboard connection")
			delete(h.clients, conn)
			_ = conn.Close()
			continue
		}
		sent++
	}
	return sent
}

// TableChanged makes the hub a workflow.StatusListener.
func (h *Hub) TableChanged(table workflow.TableRecord, previous workflow.TableStatus, counters workflow.Counters) {
	sent := h.Broadcast(Message{
		Event: EventTableStatusChanged,
		Data: TableStatusEvent{
			TableID:        table.ID,
			Status:         table.Status,
			PreviousStatus: previous,
			Guests:         table.Occupancy,
			Time:           table.ReservedTime,
			Counters:       counters,
			OccurredAt:     time.Now().UTC(),
		},
	})
	h.log.WithFields(logrus.Fields{
		"table_id": table.ID,
		"status":   table.Status,
		"clients":  sent,
	}).Debug("table status broadcast")
}
