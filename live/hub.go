// Package live pushes team activity to connected websocket clients. The hub
// keeps one room per team; membership and task mutations are broadcast to the
// room on a best-effort basis.
package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types broadcast to team rooms.
const (
	MessageMemberJoined = "MEMBER_JOINED"
	MessageMemberLeft   = "MEMBER_LEFT"
	MessageTeamDeleted  = "TEAM_DELETED"
	MessageTaskCreated  = "TASK_CREATED"
	MessageTaskUpdated  = "TASK_UPDATED"
	MessageTaskDeleted  = "TASK_DELETED"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Message struct {
	Type    string      `json:"type"`
	TeamID  int         `json:"team_id"`
	Payload interface{} `json:"payload,omitempty"`
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()
			h.logger.Debug("live client registered", slog.String("room", client.room))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, okClient := clients[client]; okClient {
					client.close()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("live client unregistered", slog.String("room", client.room))
		}
	}
}

// BroadcastTeamEvent sends a message to every client watching the team.
// Clients with a full send buffer are skipped rather than waited on.
func (h *Hub) BroadcastTeamEvent(teamID int, msgType string, payload interface{}) {
	if h == nil {
		return
	}

	message, err := json.Marshal(Message{Type: msgType, TeamID: teamID, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal live message", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[teamRoom(teamID)] {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- message:
			default:
			}
		}
		client.mu.Unlock()
	}
}

// NewClient wires a freshly upgraded connection into the team's room and
// starts its read/write pumps.
func (h *Hub) NewClient(conn *websocket.Conn, teamID int) *Client {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		room: teamRoom(teamID),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func teamRoom(teamID int) string {
	return fmt.Sprintf("team_%d", teamID)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// readPump drains (and discards) inbound frames so pings and close frames
// are processed; the feed is one-way.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
