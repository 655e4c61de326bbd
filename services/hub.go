package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub fans standings updates out to websocket clients. Clients subscribe to
// one season; whenever scores change (episode submission, rescore, roster
// move) the fresh leaderboard is pushed to everyone watching that season.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *zap.Logger
}

type Client struct {
	hub      *Hub
	socket   *websocket.Conn
	send     chan []byte
	seasonID uint
}

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Info("standings client connected",
				zap.Uint("season_id", client.seasonID), zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Info("standings client disconnected",
				zap.Uint("season_id", client.seasonID), zap.Int("total_clients", total))
		}
	}
}

// BroadcastToSeason sends a typed message to every client subscribed to the
// season. Slow clients are dropped rather than blocking the broadcast.
func (h *Hub) BroadcastToSeason(seasonID uint, messageType string, payload any) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		h.log.Error("failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if client.seasonID != seasonID {
			continue
		}
		select {
		case client.send <- data:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
	h.mutex.Unlock()
}

// RegisterClient attaches a websocket connection to the hub and starts its
// read/write pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn, seasonID uint) {
	client := &Client{
		hub:      h,
		socket:   conn,
		send:     make(chan []byte, 16),
		seasonID: seasonID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains inbound frames so pings/pongs and close messages are
// handled; the standings feed itself is one-way.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()
	c.socket.SetReadLimit(512)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
