package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/CUknot/arena_backend/events"
)

// Lifecycle is told about connections coming and going. last reports whether
// the user has no other open connection.
type Lifecycle interface {
	Connected(ctx context.Context, c *Client)
	Disconnected(ctx context.Context, c *Client, last bool)
}

// Hub maintains the set of active clients and delivers events to them.
type Hub struct {
	// Registered clients by connection id
	clients map[string]*Client

	// Open connections per user
	users map[uint]map[*Client]bool

	// Broadcast groups (group -> clients)
	groups map[string]map[*Client]bool

	mu sync.RWMutex

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	lifecycle Lifecycle
	logger    *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		users:      make(map[uint]map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// SetLifecycle installs the connection listener. Call before Run.
func (h *Hub) SetLifecycle(l Lifecycle) {
	h.lifecycle = l
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.add(client)
			h.logger.Info("client connected", "conn", client.id, "user", client.username)
			if h.lifecycle != nil {
				h.lifecycle.Connected(ctx, client)
			}
		case client := <-h.unregister:
			removed, last := h.remove(client)
			if !removed {
				continue
			}
			h.logger.Info("client disconnected", "conn", client.id, "user", client.username)
			if h.lifecycle != nil {
				h.lifecycle.Disconnected(ctx, client, last)
			}
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]bool)
	}
	h.users[c.userID][c] = true
}

func (h *Hub) remove(c *Client) (removed, last bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.id] != c {
		return false, false
	}
	delete(h.clients, c.id)
	close(c.send)

	delete(h.users[c.userID], c)
	if len(h.users[c.userID]) == 0 {
		delete(h.users, c.userID)
		last = true
	}

	// Remove client from all groups
	for group, clients := range h.groups {
		if clients[c] {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.groups, group)
			}
		}
	}
	return true, last
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	h.users = make(map[uint]map[*Client]bool)
	h.groups = make(map[string]map[*Client]bool)
}

// JoinGroup adds a connection to a group. Unknown connections are ignored.
func (h *Hub) JoinGroup(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][c] = true
}

// JoinUser adds every open connection of userID to a group.
func (h *Hub) JoinUser(userID uint, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.users[userID]
	if len(conns) == 0 {
		return
	}
	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]bool)
	}
	for c := range conns {
		h.groups[group][c] = true
	}
}

// LeaveGroup removes a connection from a group.
func (h *Hub) LeaveGroup(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if clients, ok := h.groups[group]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.groups, group)
		}
	}
}

// DisbandGroup removes every connection from a group.
func (h *Hub) DisbandGroup(group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, group)
}

// Connections returns how many connections userID has open.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Publish delivers ev to local clients.
func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	h.Deliver(ev)
	return nil
}

// Deliver sends ev to its recipients. It is the bus subscriber.
func (h *Hub) Deliver(ev events.Event) {
	msg, err := json.Marshal(Message{Type: ev.Type, Payload: ev.Payload})
	if err != nil {
		h.logger.Error("marshal event", "event", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	var recipients []*Client
	switch {
	case ev.Target != "":
		if c, ok := h.clients[ev.Target]; ok {
			recipients = append(recipients, c)
		}
	case len(ev.Users) > 0:
		seen := make(map[uint]bool, len(ev.Users))
		for _, uid := range ev.Users {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			for c := range h.users[uid] {
				recipients = append(recipients, c)
			}
		}
	case ev.Group != "":
		for c := range h.groups[ev.Group] {
			recipients = append(recipients, c)
		}
	default:
		for _, c := range h.clients {
			recipients = append(recipients, c)
		}
	}

	var slow []*Client
	for _, c := range recipients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", "conn", c.id, "user", c.username)
		go h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	h.Unregister(c)
}

// Register hands a new client to Run. It reports false once the hub stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister hands a closed client to Run.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
