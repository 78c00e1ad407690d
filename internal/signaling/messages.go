package signaling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/driftchat/signaler/internal/match"
)

type eventType string

const (
	// Client -> service.
	eventFindPeer       eventType = "find-peer"
	eventDisconnectPeer eventType = "disconnect-peer"

	// Relayed in both directions.
	eventOffer        eventType = "offer"
	eventAnswer       eventType = "answer"
	eventICECandidate eventType = "ice-candidate"
	eventChatMessage  eventType = "chat-message"

	// Service -> client.
	eventWaitingForPeer   eventType = "waiting-for-peer"
	eventPeerFound        eventType = "peer-found"
	eventPeerDisconnected eventType = "peer-disconnected"
	eventOnlineCount      eventType = "online-count"
)

// clientEvent is the tagged wire form of every client -> service event.
//
// Offer/answer/candidate/message payloads stay raw JSON: the service relays
// them verbatim and never looks inside.
type clientEvent struct {
	Type eventType `json:"type"`

	Interests []string `json:"interests,omitempty"`
	Mode      string   `json:"mode,omitempty"`

	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
}

// serverEvent is the tagged wire form of every service -> client event.
type serverEvent struct {
	Type eventType `json:"type"`

	RoomID string `json:"roomId,omitempty"`
	PeerID string `json:"peerId,omitempty"`
	From   string `json:"from,omitempty"`
	Count  *int   `json:"count,omitempty"`

	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
}

// parseClientEvent strictly decodes and validates one inbound event.
// Unknown fields, trailing data, and per-type field mismatches are all
// rejected; per the error model the caller drops such events and keeps the
// connection open.
func parseClientEvent(data []byte) (clientEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var ev clientEvent
	if err := dec.Decode(&ev); err != nil {
		return clientEvent{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return clientEvent{}, fmt.Errorf("unexpected trailing data")
	}
	if err := ev.validate(); err != nil {
		return clientEvent{}, err
	}
	return ev, nil
}

func (ev clientEvent) validate() error {
	switch ev.Type {
	case eventFindPeer:
		if _, err := match.ParseMode(ev.Mode); err != nil {
			return fmt.Errorf("find-peer: %w", err)
		}
		if ev.Offer != nil || ev.Answer != nil || ev.Candidate != nil || ev.Message != nil {
			return fmt.Errorf("find-peer event has unexpected fields")
		}
	case eventOffer:
		if ev.Offer == nil {
			return fmt.Errorf("offer event missing offer")
		}
		if err := ev.rejectMatchmakingFields(); err != nil {
			return err
		}
		if ev.Answer != nil || ev.Candidate != nil || ev.Message != nil {
			return fmt.Errorf("offer event has unexpected fields")
		}
	case eventAnswer:
		if ev.Answer == nil {
			return fmt.Errorf("answer event missing answer")
		}
		if err := ev.rejectMatchmakingFields(); err != nil {
			return err
		}
		if ev.Offer != nil || ev.Candidate != nil || ev.Message != nil {
			return fmt.Errorf("answer event has unexpected fields")
		}
	case eventICECandidate:
		if ev.Candidate == nil {
			return fmt.Errorf("ice-candidate event missing candidate")
		}
		if err := ev.rejectMatchmakingFields(); err != nil {
			return err
		}
		if ev.Offer != nil || ev.Answer != nil || ev.Message != nil {
			return fmt.Errorf("ice-candidate event has unexpected fields")
		}
	case eventChatMessage:
		if ev.Message == nil {
			return fmt.Errorf("chat-message event missing message")
		}
		if err := ev.rejectMatchmakingFields(); err != nil {
			return err
		}
		if ev.Offer != nil || ev.Answer != nil || ev.Candidate != nil {
			return fmt.Errorf("chat-message event has unexpected fields")
		}
	case eventDisconnectPeer:
		if ev.Interests != nil || ev.Mode != "" || ev.Offer != nil || ev.Answer != nil || ev.Candidate != nil || ev.Message != nil {
			return fmt.Errorf("disconnect-peer event has unexpected fields")
		}
	default:
		return fmt.Errorf("unsupported event type %q", ev.Type)
	}
	return nil
}

func (ev clientEvent) rejectMatchmakingFields() error {
	if ev.Interests != nil || ev.Mode != "" {
		return fmt.Errorf("%s event has unexpected matchmaking fields", ev.Type)
	}
	return nil
}

// signalEvent builds the outbound relayed form of a peer-to-peer message,
// tagging it with the sender's id.
func signalEvent(kind match.SignalKind, from match.ClientID, payload json.RawMessage) serverEvent {
	ev := serverEvent{From: string(from)}
	switch kind {
	case match.SignalOffer:
		ev.Type = eventOffer
		ev.Offer = payload
	case match.SignalAnswer:
		ev.Type = eventAnswer
		ev.Answer = payload
	case match.SignalICECandidate:
		ev.Type = eventICECandidate
		ev.Candidate = payload
	case match.SignalChatMessage:
		ev.Type = eventChatMessage
		ev.Message = payload
	}
	return ev
}
