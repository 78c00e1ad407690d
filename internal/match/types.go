package match

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClientID identifies one connected client for the lifetime of its connection.
type ClientID string

// Mode selects the kind of conversation a client is looking for.
type Mode string

const (
	ModeText  Mode = "text"
	ModeVideo Mode = "video"
)

func ParseMode(raw string) (Mode, error) {
	switch strings.TrimSpace(raw) {
	case string(ModeText):
		return ModeText, nil
	case string(ModeVideo):
		return ModeVideo, nil
	default:
		return "", fmt.Errorf("invalid mode %q (expected text or video)", raw)
	}
}

// SignalKind is the kind of a relayed peer-to-peer message. The hub never
// inspects the payload; it only needs the kind to label the forwarded event.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
	SignalChatMessage  SignalKind = "chat-message"
)

// Peer is the hub's view of a connected client's outbound channel.
//
// Implementations must never block: each method attempts a non-blocking
// enqueue onto a bounded per-connection queue and reports whether the event
// was accepted. The hub drops (and counts) events that were not.
type Peer interface {
	SendWaiting() bool
	SendPeerFound(roomID string, peerID ClientID) bool
	SendSignal(kind SignalKind, from ClientID, payload json.RawMessage) bool
	SendPeerDisconnected() bool
	SendOnlineCount(n int) bool
}

// client is the registry record for one connected participant. The hub owns
// these exclusively; queue entries and rooms reference clients by id only.
type client struct {
	id          ClientID
	peer        Peer
	connectedAt time.Time
}

// waitingEntry is a client currently seeking a partner.
type waitingEntry struct {
	id         ClientID
	interests  []string
	mode       Mode
	enqueuedAt time.Time
}

// room records that two distinct clients are paired and should have their
// handshake and chat messages relayed to each other.
type room struct {
	id        string
	a, b      ClientID
	createdAt time.Time
}

func (r *room) other(id ClientID) (ClientID, bool) {
	switch id {
	case r.a:
		return r.b, true
	case r.b:
		return r.a, true
	default:
		return "", false
	}
}
