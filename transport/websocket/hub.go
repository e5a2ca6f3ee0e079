package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
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

	// Broadcasts queued beyond this are dropped rather than stalling races.
	broadcastBuffer = 256
)

// EventSnapshot is the first message every client receives.
const EventSnapshot = "snapshot"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Spectators may watch from any origin
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	RaceID string      `json:"race_id"`
	Event  string      `json:"event,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// Client represents a WebSocket client watching one race
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	raceID string
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by race ID
	races map[string]map[*Client]bool

	// Outbound messages for a race
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Client count requests
	counts chan chan map[string]int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		races:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan chan map[string]int),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case reply := <-h.counts:
			counts := make(map[string]int, len(h.races))
			for id, clients := range h.races {
				counts[id] = len(clients)
			}
			reply <- counts
		}
	}
}

// ServeWS upgrades the request and subscribes the client to a race. The
// client first receives snapshot (when non-nil) and then every event
// broadcast for the race.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, raceID string, snapshot interface{}) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		raceID: raceID,
	}

	if snapshot != nil {
		data, err := json.Marshal(&Message{RaceID: raceID, Event: EventSnapshot, Data: snapshot})
		if err != nil {
			log.Printf("Failed to marshal snapshot: %v", err)
		} else {
			client.send <- data
		}
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastEvent sends an event to all clients watching a race. It never
// blocks; events are dropped when the hub falls behind.
func (h *Hub) BroadcastEvent(raceID string, event string, data interface{}) {
	message := &Message{
		RaceID: raceID,
		Event:  event,
		Data:   data,
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Dropping %s event for race %s: hub is busy", event, raceID)
	}
}

// ClientCounts reports the number of connected clients per race. It needs
// Run to be running.
func (h *Hub) ClientCounts() map[string]int {
	reply := make(chan map[string]int, 1)
	h.counts <- reply
	return <-reply
}

// registerClient adds a client to a race
func (h *Hub) registerClient(client *Client) {
	if h.races[client.raceID] == nil {
		h.races[client.raceID] = make(map[*Client]bool)
	}
	h.races[client.raceID][client] = true

	log.Printf("Client registered for race %s (total clients: %d)",
		client.raceID, len(h.races[client.raceID]))
}

// unregisterClient removes a client from a race
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.races[client.raceID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up races nobody watches
			if len(clients) == 0 {
				delete(h.races, client.raceID)
			}

			log.Printf("Client unregistered from race %s (remaining clients: %d)",
				client.raceID, len(clients))
		}
	}
}

// broadcastMessage sends a message to all clients of a race
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	if clients, ok := h.races[message.RaceID]; ok {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Client's send channel is full, drop it
				h.unregisterClient(client)
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Spectators only listen; reading keeps pongs and close frames flowing
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection. Each
// message is written as its own frame.
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
