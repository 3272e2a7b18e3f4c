package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/t2048/internal/engine"
	"github.com/vovakirdan/t2048/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending outbound messages per client before it is dropped.
	sendBuffer = 256
)

// EventStateUpdate is sent whenever a profile's game changes.
const EventStateUpdate = "state_update"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Profile     string         `json:"profile"`
	Event       string         `json:"event"`
	State       *session.State `json:"state,omitempty"`
	CanContinue *bool          `json:"canContinue,omitempty"`
}

// Client is one websocket connection following a profile.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	profile string
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	// Registered clients by profile
	sessions map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *log.Logger
}

// NewHub creates a new hub. A nil logger uses log.Default().
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, clients := range h.sessions {
			for client := range clients {
				h.unregisterClient(client)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and follows profile. When initial is not nil
// it is sent to the client before any broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, profile string, initial *session.State) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		profile: profile,
	}

	if initial != nil {
		if data, err := json.Marshal(stateMessage(profile, *initial)); err == nil {
			client.send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastState sends a state update to every client following profile.
// It matches session.ChangeFunc so it can be passed to Manager.OnChange.
func (h *Hub) BroadcastState(profile string, st session.State) {
	h.Broadcast(stateMessage(profile, st))
}

// Broadcast queues a message for the hub loop. Messages sent after the hub
// stopped are dropped.
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func stateMessage(profile string, st session.State) *Message {
	canContinue := engine.CanMove(st.Grid)
	return &Message{
		Profile:     profile,
		Event:       EventStateUpdate,
		State:       &st,
		CanContinue: &canContinue,
	}
}

// registerClient adds a client to a profile.
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.profile] == nil {
		h.sessions[client.profile] = make(map[*Client]bool)
	}
	h.sessions[client.profile][client] = true

	h.logger.Debug("websocket client registered",
		"profile", client.profile, "clients", len(h.sessions[client.profile]))
}

// unregisterClient removes a client from a profile.
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.profile]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	// Clean up empty profiles
	if len(clients) == 0 {
		delete(h.sessions, client.profile)
	}

	h.logger.Debug("websocket client unregistered",
		"profile", client.profile, "clients", len(clients))
}

// broadcastMessage sends a message to all clients of its profile.
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Warn("cannot encode websocket message", "error", err)
		return
	}

	for client := range h.sessions[message.Profile] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.unregisterClient(client)
		}
	}
}

// readPump discards client input and detects disconnects.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", "profile", c.profile, "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the connection.
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
				// The hub closed the channel
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
