package network

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HubMetrics метрики websocket хаба.
//
// Метрики:
// * survival_network_connections: gauge
// * survival_network_messages_received_total{type}: counter
// * survival_network_messages_rejected_total: counter
// * survival_network_frames_sent_total, survival_network_frames_dropped_total: counter
type HubMetrics struct {
	connections   prometheus.Gauge
	received      *prometheus.CounterVec
	rejected      prometheus.Counter
	framesSent    prometheus.Counter
	framesDropped prometheus.Counter
}

// NewHubMetrics создаёт метрики и регистрирует их в reg. При nil reg метрики не регистрируются.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "survival",
			Subsystem: "network",
			Name:      "connections",
			Help:      "Открытые websocket соединения.",
		}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "network",
			Name:      "messages_received_total",
			Help:      "Сообщения клиентов по типам.",
		}, []string{"type"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "network",
			Name:      "messages_rejected_total",
			Help:      "Нераспознанные или отклонённые сообщения клиентов.",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "network",
			Name:      "frames_sent_total",
			Help:      "Снимки, поставленные в очередь отправки.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "network",
			Name:      "frames_dropped_total",
			Help:      "Снимки, отброшенные из-за переполненного буфера клиента.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.connections, m.received, m.rejected, m.framesSent, m.framesDropped)
	}
	return m
}
