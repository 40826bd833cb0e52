package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics метрики цикла симуляции.
//
// Метрики:
// * survival_world_tick_duration_seconds: histogram
// * survival_world_entities{type}: gauge
// * survival_world_entities_spawned_total{type}, survival_world_entities_removed_total{type}: counter
// * survival_world_update_errors_total: counter (ошибки и паники Update)
// * survival_world_commands_dropped_total: counter (переполнение очереди команд)
// * survival_world_sessions: gauge
type Metrics struct {
	tickDuration    prometheus.Histogram
	entities        *prometheus.GaugeVec
	spawned         *prometheus.CounterVec
	removed         *prometheus.CounterVec
	updateErrors    prometheus.Counter
	commandsDropped prometheus.Counter
	outputsDropped  prometheus.Counter
	sessions        prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg. При nil reg метрики не регистрируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "survival",
			Subsystem: "world",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика симуляции.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "survival",
			Subsystem: "world",
			Name:      "entities",
			Help:      "Количество сущностей по типам после prune.",
		}, []string{"type"}),
		spawned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "world",
			Name:      "entities_spawned_total",
			Help:      "Появившиеся сущности.",
		}, []string{"type"}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "world",
			Name:      "entities_removed_total",
			Help:      "Удалённые сущности.",
		}, []string{"type"}),
		updateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "world",
			Name:      "update_errors_total",
			Help:      "Ошибки и паники в Update отдельных сущностей.",
		}),
		commandsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "world",
			Name:      "commands_dropped_total",
			Help:      "Команды, отброшенные из-за переполнения очереди.",
		}),
		outputsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "survival",
			Subsystem: "world",
			Name:      "snapshots_dropped_total",
			Help:      "Снимки, не доставленные подписчикам из-за медленной доставки.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "survival",
			Subsystem: "world",
			Name:      "sessions",
			Help:      "Активные игровые сессии.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.tickDuration, m.entities, m.spawned, m.removed,
			m.updateErrors, m.commandsDropped, m.outputsDropped, m.sessions)
	}
	return m
}
