package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/audioscribe/logger"
)

// clientBuffer is the number of frames queued per client before sends are dropped.
const clientBuffer = 64

// Broadcaster publishes events to clients matching a pattern.
type Broadcaster interface {
	Publish(pattern string, e Event)
}

// Client represents a connected SSE client.
type Client struct {
	id     string
	events chan []byte
	log    *logger.Logger
}

// NewClient creates a client with a buffered frame channel.
func NewClient(id string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		id:     id,
		events: make(chan []byte, clientBuffer),
		log:    log,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// Events returns the channel of encoded frames for this client.
func (c *Client) Events() <-chan []byte {
	return c.events
}

// Send queues a frame for the client.
// Returns false if the channel is full (client is slow).
func (c *Client) Send(frame []byte) bool {
	select {
	case c.events <- frame:
		return true
	default:
		c.log.Warn("client channel full, dropping event", logger.Fields("client_id", c.id))
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() {
	close(c.events)
}

// Hub manages SSE client connections and message broadcasting.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	log        *logger.Logger
}

// Message is an encoded frame addressed by glob pattern.
type Message struct {
	Pattern string
	Data    []byte
}

// NewHub creates a new SSE hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Get("sse")
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		log:        log.WithComponent("sse"),
	}
}

// Run starts the hub's main event loop. It blocks until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", client.id, "total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", client.id, "total_clients", total))

		case msg := <-h.broadcast:
			h.broadcastWithPattern(msg.Pattern, msg.Data)
		}
	}
}

// Stop signals the hub to shut down. It closes all client connections
// and causes Run to return. Safe to call multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
	h.log.Debug("all clients closed during shutdown")
}

// Register adds a client to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToPattern sends an encoded frame to all clients matching the
// pattern (e.g. "job:*" or "job:abc123:*").
func (h *Hub) BroadcastToPattern(pattern string, frame []byte) {
	select {
	case h.broadcast <- &Message{Pattern: pattern, Data: frame}:
	case <-h.done:
	}
}

// Publish encodes e and broadcasts it to clients matching pattern.
func (h *Hub) Publish(pattern string, e Event) {
	frame, err := e.Encode()
	if err != nil {
		h.log.Error("dropping event", logger.Fields("event", e.Type, logger.FieldError, err.Error()))
		return
	}
	h.BroadcastToPattern(pattern, frame)
}

// broadcastWithPattern runs on the hub goroutine.
func (h *Hub) broadcastWithPattern(pattern string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	matchCount := 0
	for clientID, client := range h.clients {
		matched, err := filepath.Match(pattern, clientID)
		if err != nil {
			h.log.Error("pattern match error", logger.Fields("pattern", pattern, logger.FieldError, err.Error()))
			return
		}
		if matched && client.Send(frame) {
			matchCount++
		}
	}

	h.log.Debug("broadcast sent", logger.Fields(
		"pattern", pattern,
		"match_count", matchCount,
		"data_size", len(frame),
	))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the ids of all connected clients.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

var _ Broadcaster = (*Hub)(nil)
