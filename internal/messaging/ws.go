package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	EventPresenceJoin  = "presence_join"
	EventPresenceLeave = "presence_leave"

	writeWait = 10 * time.Second
)

type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ParticipantChecker answers whether a user belongs to a thread.
type ParticipantChecker interface {
	IsThreadParticipant(ctx context.Context, threadID, userID string) (bool, error)
}

type room struct {
	threadID string
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
}

func (r *room) broadcast(payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c, wmu := range r.clients {
		wmu.Lock()
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.WriteMessage(websocket.TextMessage, payload)
		wmu.Unlock()
	}
}

func (r *room) register(c *websocket.Conn) {
	r.mu.Lock()
	r.clients[c] = &sync.Mutex{}
	r.mu.Unlock()
}

// unregister reports whether the room is now empty.
func (r *room) unregister(c *websocket.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients) == 0
}

// Hub fans order and presence events out to the websockets open on each thread.
type Hub struct {
	threads  ParticipantChecker
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]*room
}

func NewHub(threads ParticipantChecker, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		threads: threads,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]*room),
	}
}

// join adds c to the thread's room, creating the room on first use.
func (h *Hub) join(threadID string, c *websocket.Conn) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[threadID]
	if !ok {
		r = &room{threadID: threadID, clients: make(map[*websocket.Conn]*sync.Mutex)}
		h.rooms[threadID] = r
	}
	r.register(c)
	return r
}

func (h *Hub) leave(r *room, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.unregister(c) && h.rooms[r.threadID] == r {
		delete(h.rooms, r.threadID)
	}
}

// Publish sends an event to everyone connected to threadID. Threads with no
// listeners are skipped.
func (h *Hub) Publish(threadID, eventType string, data any) {
	h.mu.RLock()
	r, ok := h.rooms[threadID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	payload, err := json.Marshal(wsEvent{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("marshal ws event", slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}
	r.broadcast(payload)
}

// Connections returns the number of open sockets on a thread.
func (h *Hub) Connections(threadID string) int {
	h.mu.RLock()
	r, ok := h.rooms[threadID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (h *Hub) Register(auth *echo.Group) {
	auth.GET("/threads/:threadId/ws", h.ThreadWS)
}

// ThreadWS - websocket for realtime order updates on a thread
func (h *Hub) ThreadWS(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	threadID := c.Param("threadId")
	if _, err := uuid.Parse(threadID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "thread not found"})
	}

	member, err := h.threads.IsThreadParticipant(c.Request().Context(), threadID, userID)
	if err != nil {
		h.logger.Error("thread participant check failed", slog.String("thread_id", threadID), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open thread"})
	}
	if !member {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this thread"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	r := h.join(threadID, ws)
	h.Publish(threadID, EventPresenceJoin, echo.Map{"user_id": userID})

	// read loop only detects disconnects; client messages are discarded
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.leave(r, ws)
	_ = ws.Close()
	h.Publish(threadID, EventPresenceLeave, echo.Map{"user_id": userID})
	return nil
}
