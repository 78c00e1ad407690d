package signaling

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftchat/signaler/internal/match"
)

const writeWait = 1 * time.Second

// peerConn is one connected client: the WebSocket plus a bounded outbound
// queue drained by a dedicated writer goroutine, so hub state transitions
// never block on a slow consumer.
type peerConn struct {
	srv  *Server
	conn *websocket.Conn

	id match.ClientID

	send chan serverEvent
	done chan struct{}

	closeOnce sync.Once
}

func newPeerConn(srv *Server, conn *websocket.Conn) *peerConn {
	return &peerConn{
		srv:  srv,
		conn: conn,
		send: make(chan serverEvent, srv.sendQueueSize()),
		done: make(chan struct{}),
	}
}

// trySend enqueues an event without blocking. Overflow means the consumer is
// too slow; the event is dropped and the caller counts it.
func (c *peerConn) trySend(ev serverEvent) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// match.Peer implementation. Every method is a non-blocking enqueue.

func (c *peerConn) SendWaiting() bool {
	return c.trySend(serverEvent{Type: eventWaitingForPeer})
}

func (c *peerConn) SendPeerFound(roomID string, peerID match.ClientID) bool {
	return c.trySend(serverEvent{Type: eventPeerFound, RoomID: roomID, PeerID: string(peerID)})
}

func (c *peerConn) SendSignal(kind match.SignalKind, from match.ClientID, payload json.RawMessage) bool {
	return c.trySend(signalEvent(kind, from, payload))
}

func (c *peerConn) SendPeerDisconnected() bool {
	return c.trySend(serverEvent{Type: eventPeerDisconnected})
}

func (c *peerConn) SendOnlineCount(n int) bool {
	return c.trySend(serverEvent{Type: eventOnlineCount, Count: &n})
}

// writePump drains the send queue and keeps the connection alive with
// periodic pings. It exits when the connection closes or a write fails,
// which in turn makes the read loop fail and run the disconnect path.
func (c *peerConn) writePump() {
	ticker := time.NewTicker(c.srv.pingInterval())
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *peerConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *peerConn) closeWith(code int, reason string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.close()
}
