package signaling

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftchat/signaler/internal/match"
	"github.com/driftchat/signaler/internal/metrics"
	"github.com/driftchat/signaler/internal/ratelimit"
)

// Config wires together the runtime dependencies for the signaling service.
type Config struct {
	Hub     *match.Hub
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// IdleTimeout closes connections with no inbound traffic (pongs count).
	IdleTimeout time.Duration

	// PingInterval is how often the server pings each connection.
	PingInterval time.Duration

	// MaxMessageBytes caps the size of a single inbound event.
	MaxMessageBytes int64

	// MaxMessagesPerSecond is the per-connection inbound event budget.
	MaxMessagesPerSecond int

	// SendQueueSize bounds each connection's outbound event queue.
	SendQueueSize int
}

// Server terminates WebSocket connections on GET /ws and feeds their events
// into the hub.
type Server struct {
	Hub     *match.Hub
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	IdleTimeout          time.Duration
	PingInterval         time.Duration
	MaxMessageBytes      int64
	MaxMessagesPerSecond int
	SendQueueSize        int

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*peerConn]struct{}
}

func NewServer(cfg Config) *Server {
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	hub := cfg.Hub
	if hub == nil {
		hub = match.NewHub(match.Config{Metrics: m, Logger: log})
	}
	return &Server{
		Hub:     hub,
		Metrics: m,
		Logger:  log,

		IdleTimeout:          cfg.IdleTimeout,
		PingInterval:         cfg.PingInterval,
		MaxMessageBytes:      cfg.MaxMessageBytes,
		MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
		SendQueueSize:        cfg.SendQueueSize,

		upgrader: websocket.Upgrader{
			// Origin checks are enforced by the outer httpserver origin
			// middleware. For unit tests that dial the handler directly,
			// accept all origins here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},

		conns: make(map[*peerConn]struct{}),
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.ServeHTTP)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	pc := newPeerConn(s, conn)

	id, err := s.Hub.Register(pc)
	if err != nil {
		if errors.Is(err, match.ErrTooManyClients) {
			pc.closeWith(websocket.CloseTryAgainLater, "server full")
		} else {
			pc.closeWith(websocket.CloseInternalServerErr, "registration failed")
		}
		return
	}
	pc.id = id

	s.track(pc)
	go pc.writePump()

	s.readLoop(pc)
}

// Close tears down every active connection. Each read loop then runs its own
// disconnect path, so hub state is cleaned up per client as usual.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*peerConn, 0, len(s.conns))
	for pc := range s.conns {
		conns = append(conns, pc)
	}
	s.conns = nil
	s.mu.Unlock()

	for _, pc := range conns {
		pc.close()
	}
}

// readLoop consumes inbound events until the connection drops, then runs the
// disconnect path exactly once.
func (s *Server) readLoop(pc *peerConn) {
	defer func() {
		s.untrack(pc)
		s.Hub.Unregister(pc.id)
		pc.close()
	}()

	conn := pc.conn
	conn.SetReadLimit(s.maxMessageBytes())

	idle := s.idleTimeout()
	_ = conn.SetReadDeadline(time.Now().Add(idle))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(idle))
	})

	perSecond := int64(s.maxMessagesPerSecond())
	limiter := ratelimit.NewTokenBucket(ratelimit.RealClock{}, perSecond, perSecond)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(idle))

		// Apply the rate limit after reading so bytes already buffered by the
		// OS are consumed before any close handshake.
		if !limiter.Allow(1) {
			s.Metrics.DroppedMessages.WithLabelValues(metrics.DropReasonRateLimited).Inc()
			pc.closeWith(websocket.ClosePolicyViolation, "rate limit exceeded")
			return
		}

		ev, err := parseClientEvent(data)
		if err != nil {
			// Protocol errors drop the event, never the connection.
			s.Metrics.ProtocolErrors.Inc()
			s.Logger.Debug("dropping malformed event", "client_id", pc.id, "err", err)
			continue
		}

		s.dispatch(pc, ev)
	}
}

func (s *Server) dispatch(pc *peerConn, ev clientEvent) {
	switch ev.Type {
	case eventFindPeer:
		mode, err := match.ParseMode(ev.Mode)
		if err != nil {
			// Already validated during parsing.
			s.Metrics.ProtocolErrors.Inc()
			return
		}
		s.Hub.FindPeer(pc.id, ev.Interests, mode)
	case eventOffer:
		s.Hub.Relay(pc.id, match.SignalOffer, ev.Offer)
	case eventAnswer:
		s.Hub.Relay(pc.id, match.SignalAnswer, ev.Answer)
	case eventICECandidate:
		s.Hub.Relay(pc.id, match.SignalICECandidate, ev.Candidate)
	case eventChatMessage:
		s.Hub.Relay(pc.id, match.SignalChatMessage, ev.Message)
	case eventDisconnectPeer:
		s.Hub.LeaveSession(pc.id)
	default:
		s.Metrics.ProtocolErrors.Inc()
	}
}

func (s *Server) track(pc *peerConn) {
	s.mu.Lock()
	if s.conns == nil {
		s.conns = make(map[*peerConn]struct{})
	}
	s.conns[pc] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(pc *peerConn) {
	s.mu.Lock()
	if s.conns != nil {
		delete(s.conns, pc)
	}
	s.mu.Unlock()
}

func (s *Server) idleTimeout() time.Duration {
	if s.IdleTimeout <= 0 {
		return 60 * time.Second
	}
	return s.IdleTimeout
}

func (s *Server) pingInterval() time.Duration {
	if s.PingInterval <= 0 {
		return 20 * time.Second
	}
	return s.PingInterval
}

func (s *Server) maxMessageBytes() int64 {
	if s.MaxMessageBytes <= 0 {
		return 64 * 1024
	}
	return s.MaxMessageBytes
}

func (s *Server) maxMessagesPerSecond() int {
	if s.MaxMessagesPerSecond <= 0 {
		return 50
	}
	return s.MaxMessagesPerSecond
}

func (s *Server) sendQueueSize() int {
	if s.SendQueueSize <= 0 {
		return 64
	}
	return s.SendQueueSize
}
