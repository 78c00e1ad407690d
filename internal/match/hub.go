package match

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/driftchat/signaler/internal/metrics"
)

// Config wires the runtime dependencies for a Hub.
type Config struct {
	// MaxClients caps concurrently registered clients. 0 means unlimited.
	MaxClients int

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Hub is the single serialization point for all pairing state: the client
// registry, the waiting queue, and the room directory.
//
// Every mutation (register, find-peer, leave, disconnect) runs as one
// indivisible step under the write lock, so a waiting client can never be
// matched twice and a client is never simultaneously waiting and paired.
// Relay only reads room membership and runs under the read lock, allowing
// concurrent forwarding against a consistent snapshot.
type Hub struct {
	maxClients int
	metrics    *metrics.Metrics
	log        *slog.Logger

	mu      sync.RWMutex
	clients map[ClientID]*client
	queue   waitingQueue
	rooms   roomDirectory
}

func NewHub(cfg Config) *Hub {
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		maxClients: cfg.MaxClients,
		metrics:    m,
		log:        log,
		clients:    make(map[ClientID]*client),
		rooms:      newRoomDirectory(),
	}
}

// Register adds a newly connected client and broadcasts the updated online
// count to everyone, including the new client.
func (h *Hub) Register(p Peer) (ClientID, error) {
	id := ClientID(uuid.NewString())

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		h.metrics.DroppedMessages.WithLabelValues(metrics.DropReasonServerFull).Inc()
		return "", ErrTooManyClients
	}

	h.clients[id] = &client{id: id, peer: p, connectedAt: time.Now()}
	h.metrics.ConnectionsTotal.Inc()
	h.metrics.OnlineClients.Set(float64(len(h.clients)))
	h.broadcastOnlineCountLocked()

	h.log.Debug("client registered", "client_id", id, "online", len(h.clients))
	return id, nil
}

// Unregister runs the full disconnect path for a client: notify and unpair
// any roommate, leave the waiting queue, remove the registry record, and
// broadcast the updated online count.
//
// It is idempotent; a second call for the same id only logs the
// inconsistency.
func (h *Hub) Unregister(id ClientID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[id]; !ok {
		h.log.Debug("unregister for unknown client", "client_id", id)
		return
	}

	h.teardownRoomLocked(id)
	if h.queue.remove(id) {
		h.metrics.WaitingClients.Set(float64(h.queue.len()))
	}

	delete(h.clients, id)
	h.metrics.OnlineClients.Set(float64(len(h.clients)))
	h.broadcastOnlineCountLocked()

	h.log.Debug("client unregistered", "client_id", id, "online", len(h.clients))
}

// FindPeer attempts to pair the client with the oldest qualifying waiting
// entry. On success both clients receive peer-found; otherwise the client is
// enqueued (if not already waiting) and receives waiting-for-peer.
//
// A request from a client that is already paired is ignored.
func (h *Hub) FindPeer(id ClientID, interests []string, mode Mode) {
	h.mu.Lock()
	defer h.mu.Unlock()

	self, ok := h.clients[id]
	if !ok {
		return
	}
	if _, paired := h.rooms.roomOf(id); paired {
		return
	}

	now := time.Now()

	for {
		entry, found := h.queue.findMatch(id, interests, mode)
		if !found {
			if h.queue.enqueue(id, interests, mode, now) {
				h.metrics.WaitingClients.Set(float64(h.queue.len()))
			}
			h.sendLocked(self.peer.SendWaiting())
			return
		}

		matched, ok := h.clients[entry.id]
		if !ok {
			// Stale entry for a client that is no longer registered. Unregister
			// evicts queue entries under this same lock, so this should not
			// happen; treat the reference as absent and rescan.
			h.queue.remove(entry.id)
			h.metrics.WaitingClients.Set(float64(h.queue.len()))
			h.log.Warn("evicted stale waiting entry", "client_id", entry.id)
			continue
		}

		// Evicting both entries and creating the room is one atomic step.
		h.queue.remove(entry.id)
		h.queue.remove(id)
		h.metrics.WaitingClients.Set(float64(h.queue.len()))

		r, err := h.rooms.create(id, entry.id, now)
		if err != nil {
			h.log.Error("failed to allocate room id", "err", err)
			h.queue.enqueue(entry.id, entry.interests, entry.mode, entry.enqueuedAt)
			h.metrics.WaitingClients.Set(float64(h.queue.len()))
			h.sendLocked(self.peer.SendWaiting())
			return
		}
		h.metrics.ActiveSessions.Set(float64(h.rooms.len()))
		h.metrics.MatchesTotal.Inc()

		h.sendLocked(self.peer.SendPeerFound(r.id, entry.id))
		h.sendLocked(matched.peer.SendPeerFound(r.id, id))

		h.log.Debug("peers matched", "room_id", r.id, "a", id, "b", entry.id, "mode", mode)
		return
	}
}

// LeaveSession handles a voluntary disconnect-peer: if the client is paired,
// the roommate is notified and the room destroyed, returning both clients to
// idle; if the client is waiting, its queue entry is removed.
func (h *Hub) LeaveSession(id ClientID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[id]; !ok {
		return
	}

	h.teardownRoomLocked(id)
	if h.queue.remove(id) {
		h.metrics.WaitingClients.Set(float64(h.queue.len()))
	}
}

// Relay forwards a handshake or chat message to the sender's roommate. When
// the sender has no room (for instance because the peer just disconnected)
// the message is dropped silently; that is expected, not an error.
func (h *Hub) Relay(from ClientID, kind SignalKind, payload json.RawMessage) {
	h.mu.RLock()
	peerID, ok := h.rooms.peerOf(from)
	var peer Peer
	if ok {
		if c, present := h.clients[peerID]; present {
			peer = c.peer
		}
	}
	h.mu.RUnlock()

	if peer == nil {
		h.metrics.DroppedMessages.WithLabelValues(metrics.DropReasonNoSession).Inc()
		return
	}

	if !peer.SendSignal(kind, from, payload) {
		h.metrics.DroppedMessages.WithLabelValues(metrics.DropReasonQueueFull).Inc()
		return
	}
	h.metrics.RelayedMessages.WithLabelValues(string(kind)).Inc()
}

// OnlineCount returns the number of currently registered clients.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WaitingCount returns the number of clients waiting for a match.
func (h *Hub) WaitingCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.queue.len()
}

// RoomCount returns the number of active two-party rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms.len()
}

// teardownRoomLocked destroys the client's room, if any, and notifies the
// remaining participant exactly once.
func (h *Hub) teardownRoomLocked(id ClientID) {
	r, ok := h.rooms.destroy(id)
	if !ok {
		return
	}
	h.metrics.ActiveSessions.Set(float64(h.rooms.len()))

	peerID, _ := r.other(id)
	if peerClient, present := h.clients[peerID]; present {
		h.sendLocked(peerClient.peer.SendPeerDisconnected())
	}
	h.log.Debug("room destroyed", "room_id", r.id, "by", id)
}

func (h *Hub) broadcastOnlineCountLocked() {
	n := len(h.clients)
	for _, c := range h.clients {
		h.sendLocked(c.peer.SendOnlineCount(n))
	}
}

func (h *Hub) sendLocked(delivered bool) {
	if !delivered {
		h.metrics.DroppedMessages.WithLabelValues(metrics.DropReasonQueueFull).Inc()
	}
}
