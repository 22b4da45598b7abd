package web

import (
	"net/http"
	"sync"

	"tadpole-derby/games/derby"
	"tadpole-derby/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSMessage is the envelope for every overlay message.
type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client is one connected overlay.
type Client struct {
	Conn *websocket.Conn
	Send chan WSMessage
}

// Hub fans race frames out to every connected overlay client. It
// implements derby.FramePublisher.
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	Mutex      sync.Mutex
	viewport   Viewport
	done       chan struct{}
}

// NewHub initializes and returns a new Hub
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan WSMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Close stops the hub loop and disconnects every client.
func (h *Hub) Close() {
	close(h.done)
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.Mutex.Lock()
			for client := range h.Clients {
				close(client.Send)
				delete(h.Clients, client)
				utils.OverlayClients.Dec()
			}
			h.Mutex.Unlock()
			return
		case client := <-h.Register:
			h.Mutex.Lock()
			h.Clients[client] = true
			h.Mutex.Unlock()
			utils.OverlayClients.Inc()
			utils.Log.Info("overlay client connected")
		case client := <-h.Unregister:
			h.Mutex.Lock()
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				utils.OverlayClients.Dec()
				utils.Log.Info("overlay client disconnected")
			}
			h.Mutex.Unlock()
		case message := <-h.Broadcast:
			h.Mutex.Lock()
			for client := range h.Clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.Clients, client)
					utils.OverlayClients.Dec()
				}
			}
			h.Mutex.Unlock()
		}
	}
}

// frameEnvelope annotates a race frame with the overlay camera mode.
type frameEnvelope struct {
	derby.Frame
	Camera string `json:"camera"`
}

// PublishFrame satisfies derby.FramePublisher.
func (h *Hub) PublishFrame(frame derby.Frame) {
	env := frameEnvelope{Frame: frame, Camera: h.viewport.CameraFor(frame.Phase)}
	select {
	case h.Broadcast <- WSMessage{Event: "race_frame", Data: env}:
	default:
		// Drop the frame rather than stall the animation loop.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Overlays are served from anywhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs upgrades an overlay connection and starts its pumps.
func ServeWs(h *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{Conn: conn, Send: make(chan WSMessage, 256)}
	h.Register <- client

	go client.WritePump()
	go client.ReadPump(h)
}

// ReadPump drains incoming messages; overlays are write-only from the
// server's point of view, but reading is what detects disconnects.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Unregister <- c
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.Log.Warn("websocket read error", zap.Error(err))
			}
			break
		}
	}
}

// WritePump sends messages from the Send channel to the WebSocket connection
func (c *Client) WritePump() {
	defer c.Conn.Close()
	for message := range c.Send {
		if err := c.Conn.WriteJSON(message); err != nil {
			utils.Log.Warn("websocket write error", zap.Error(err))
			break
		}
	}
}
