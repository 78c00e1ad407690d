package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons used as the "reason" label on DroppedMessages.
const (
	DropReasonNoSession   = "no_session"
	DropReasonQueueFull   = "queue_full"
	DropReasonRateLimited = "rate_limited"
	DropReasonServerFull  = "server_full"
)

// Metrics bundles the service's Prometheus collectors.
//
// Each Metrics owns its own registry so tests can construct isolated
// instances and read counters back without touching global state.
type Metrics struct {
	reg *prometheus.Registry

	ConnectionsTotal prometheus.Counter
	OnlineClients    prometheus.Gauge
	WaitingClients   prometheus.Gauge
	ActiveSessions   prometheus.Gauge

	MatchesTotal    prometheus.Counter
	RelayedMessages *prometheus.CounterVec
	DroppedMessages *prometheus.CounterVec
	ProtocolErrors  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,

		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "signaler_connections_total",
			Help: "Total number of WebSocket connections accepted.",
		}),
		OnlineClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signaler_online_clients",
			Help: "Current number of connected clients.",
		}),
		WaitingClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signaler_waiting_clients",
			Help: "Current number of clients waiting for a match.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signaler_active_sessions",
			Help: "Current number of paired two-party sessions.",
		}),
		MatchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "signaler_matches_total",
			Help: "Total number of successful pairings.",
		}),
		RelayedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signaler_relayed_messages_total",
			Help: "Total number of signaling/chat messages relayed between peers.",
		}, []string{"kind"}),
		DroppedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signaler_dropped_messages_total",
			Help: "Total number of messages dropped instead of delivered.",
		}, []string{"reason"}),
		ProtocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "signaler_protocol_errors_total",
			Help: "Total number of malformed or unexpected inbound events.",
		}),
	}
}

// Handler exposes this instance's registry in Prometheus' text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
