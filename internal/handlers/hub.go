// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lastletter/lastletter/internal/game"
)

// outChanSize bounds how many undelivered events a single connection may
// queue before it is considered a slow consumer and dropped.
const outChanSize = 32

// client is the hub-side handle for one WebSocket connection. Events are
// queued on OutChan and drained by the connection's write pump, so delivery
// order per connection matches emission order.
type client struct {
	id      string
	outChan chan game.Event
	cancel  func()
}

// Hub tracks live connections and their room groups. It satisfies
// game.Notifier: the game layer addresses players and rooms by name and the
// hub resolves them to WebSocket connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]*client
	logger  *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]*client),
		logger:  logger,
	}
}

// Register creates the hub-side handle for a new connection. cancel is
// invoked when the hub decides the connection must go (slow consumer,
// duplicate session).
func (h *Hub) Register(id string, cancel func()) (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.clients[id]; exists {
		return nil, false
	}
	cl := &client{
		id:      id,
		outChan: make(chan game.Event, outChanSize),
		cancel:  cancel,
	}
	h.clients[id] = cl
	return cl, true
}

// Unregister removes a connection from the hub and every group it belonged
// to, and closes its outbound channel so the write pump exits.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	for room, members := range h.groups {
		if _, in := members[id]; in {
			delete(members, id)
			if len(members) == 0 {
				delete(h.groups, room)
			}
		}
	}
	close(cl.outChan)
}

// Send queues an event for a single connection. The read lock is held for
// the queue attempt itself so Unregister cannot close the channel mid-send.
func (h *Hub) Send(connID string, ev game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if cl, ok := h.clients[connID]; ok {
		h.deliver(cl, ev)
	}
}

// Broadcast queues an event for every member of a room group.
func (h *Hub) Broadcast(room string, ev game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.groups[room] {
		h.deliver(cl, ev)
	}
}

// JoinGroup adds a connection to a room group.
func (h *Hub) JoinGroup(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.clients[connID]
	if !ok {
		return
	}
	members, ok := h.groups[room]
	if !ok {
		members = make(map[string]*client)
		h.groups[room] = members
	}
	members[connID] = cl
}

// LeaveGroup removes a connection from a room group.
func (h *Hub) LeaveGroup(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, room)
	}
}

// deliver queues without blocking. A full channel means the consumer has
// stalled past outChanSize events; the connection is cancelled rather than
// letting one client back up game delivery for a whole room.
func (h *Hub) deliver(cl *client, ev game.Event) {
	select {
	case cl.outChan <- ev:
	default:
		h.logger.WithFields(logrus.Fields{
			"conn":  cl.id,
			"event": ev.Type,
		}).Warn("outbound queue full, dropping connection")
		cl.cancel()
	}
}
