package hub

import (
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrInvalidParticipant = errors.New("participant id is required")
	ErrRoomNotJoinable    = errors.New("room is not joinable")
)

// sendBuffer is the per-subscription queue depth. A subscriber that falls
// this far behind is considered dead and dropped.
const sendBuffer = 256

// Subscription binds one transport connection to one (room, participant)
// pair. The write side of the connection drains Receive.
type Subscription struct {
	RoomID   string
	ClientID string

	send      chan []byte
	closeOnce sync.Once
}

// Receive returns the channel of outbound payloads for this subscription.
// The channel is closed when the subscription is torn down.
func (s *Subscription) Receive() <-chan []byte {
	return s.send
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() { close(s.send) })
}

// Hub is the connection registry and broadcast engine. It maps rooms to
// their live subscriptions and fans messages out without letting one slow
// consumer stall the others.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Subscription // roomID -> clientID -> subscription
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]*Subscription),
	}
}

// Subscribe registers a connection under a room. A second subscription with
// the same client id supersedes the prior one: the old subscription is
// closed and its connection will tear itself down.
func (h *Hub) Subscribe(roomID, clientID string) (*Subscription, error) {
	if clientID == "" {
		return nil, ErrInvalidParticipant
	}

	sub := &Subscription{
		RoomID:   roomID,
		ClientID: clientID,
		send:     make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[string]*Subscription)
		h.rooms[roomID] = subs
	}
	prior := subs[clientID]
	subs[clientID] = sub
	h.mu.Unlock()

	if prior != nil {
		prior.close()
		slog.Info("subscription superseded", "room", roomID, "clientId", clientID)
	}

	return sub, nil
}

// Unsubscribe removes a subscription and closes its send channel. It is a
// no-op when the subscription was already superseded or removed.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if subs, ok := h.rooms[sub.RoomID]; ok && subs[sub.ClientID] == sub {
		delete(subs, sub.ClientID)
		if len(subs) == 0 {
			delete(h.rooms, sub.RoomID)
		}
	}
	h.mu.Unlock()

	sub.close()
}

// Broadcast queues data for every subscription of a room. Calls for the
// same room made under the room's serialization point arrive at every
// subscriber in the same order. A subscriber with a full queue is dropped.
func (h *Hub) Broadcast(roomID string, data []byte) {
	h.mu.RLock()
	var dead []*Subscription
	for _, sub := range h.rooms[roomID] {
		select {
		case sub.send <- data:
		default:
			dead = append(dead, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range dead {
		slog.Warn("dropping slow subscriber", "room", roomID, "clientId", sub.ClientID)
		h.Unsubscribe(sub)
	}
}

// BroadcastExcept behaves like Broadcast but skips one client, typically
// the sender when it already received a personal copy.
func (h *Hub) BroadcastExcept(roomID, exceptClientID string, data []byte) {
	h.mu.RLock()
	var dead []*Subscription
	for clientID, sub := range h.rooms[roomID] {
		if clientID == exceptClientID {
			continue
		}
		select {
		case sub.send <- data:
		default:
			dead = append(dead, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range dead {
		slog.Warn("dropping slow subscriber", "room", roomID, "clientId", sub.ClientID)
		h.Unsubscribe(sub)
	}
}

// Subscribed reports whether a client currently holds a subscription in a
// room. A superseded connection uses this to tell it should not remove the
// player on teardown.
func (h *Hub) Subscribed(roomID, clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][clientID]
	return ok
}

// SendTo queues data for a single subscriber of a room.
func (h *Hub) SendTo(roomID, clientID string, data []byte) {
	h.mu.RLock()
	sub := h.rooms[roomID][clientID]
	h.mu.RUnlock()

	if sub == nil {
		return
	}

	select {
	case sub.send <- data:
	default:
		slog.Warn("dropping slow subscriber", "room", roomID, "clientId", clientID)
		h.Unsubscribe(sub)
	}
}

// Count returns the number of live subscriptions in a room.
func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Stats reports the number of rooms with subscribers and total connections.
func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, subs := range h.rooms {
		clients += len(subs)
	}
	return rooms, clients
}
