package nowplaying

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/logging"
)

// Hub tracks connected clients and fans room updates out to them.
type Hub struct {
	logger     *zap.Logger
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Update
	direct     chan directMessage
	count      chan chan int
	done       chan struct{}
}

type directMessage struct {
	client  *Client
	payload []byte
}

// NewHub creates a Hub. A nil logger uses the global one.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logging.Or(logger).Named("nowplaying"),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Update, 16),
		direct:     make(chan directMessage),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run is the hub event loop. It owns the client set and must run in its own
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")
	defer h.logger.Info("hub stopped")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Debug("client registered",
				zap.String("client_id", client.id),
				zap.String("room", client.room),
			)
		case client := <-h.unregister:
			h.remove(client)
		case update := <-h.broadcast:
			h.deliver(update)
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.sendTo(msg.client, msg.payload)
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

// Broadcast queues an update for every client watching update.Room.
func (h *Hub) Broadcast(update Update) {
	select {
	case h.broadcast <- update:
	case <-h.done:
	}
}

// ClientCount reports the number of registered clients, or 0 once Run has
// returned.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// unicast queues payload for one registered client.
func (h *Hub) unicast(client *Client, payload []byte) {
	select {
	case h.direct <- directMessage{client: client, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) deliver(update Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("failed to encode update", zap.Error(err))
		return
	}
	for client := range h.clients {
		if client.room == update.Room {
			h.sendTo(client, payload)
		}
	}
}

func (h *Hub) sendTo(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("client send buffer full, dropping connection",
			zap.String("client_id", client.id),
		)
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.logger.Debug("client unregistered", zap.String("client_id", client.id))
}
