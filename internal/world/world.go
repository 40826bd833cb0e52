package world

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/survival-server/internal/config"
	"github.com/annel0/survival-server/internal/eventbus"
	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/vec"
	"github.com/annel0/survival-server/internal/world/entity"
)

const tracerName = "github.com/annel0/survival-server/internal/world"

// tickOutput результат тика, доставляемый подписчикам вне потока симуляции
type tickOutput struct {
	snapshot *Snapshot
	delta    Delta
	events   []*eventbus.Envelope
}

// WorldManager владеет реестром сущностей и картой и продвигает симуляцию по тикам.
// Реестр меняется только внутри Tick. Внешние горутины передают изменения
// через очередь команд, которая разбирается в начале каждого тика.
type WorldManager struct {
	cfg      config.SimulationConfig
	entities *entity.EntityManager
	maps     *MapManager
	spawner  *Spawner
	metrics  *Metrics
	bus      eventbus.EventBus
	tracer   trace.Tracer
	logger   *logging.Logger

	commands chan command
	outputs  chan tickOutput

	sinksMu sync.RWMutex
	sinks   []SnapshotSink

	// Состояние потока симуляции
	tick          uint64
	prevIDs       map[string]entity.EntityType
	prevOrder     []string
	sessions      map[string]*entity.Player
	pendingEvents []*eventbus.Envelope

	sessionMu      sync.RWMutex
	sessionPlayers map[string]string

	// Выходы, не поместившиеся в очередь команд. Не теряются.
	leavesMu      sync.Mutex
	pendingLeaves []string

	latest atomic.Pointer[Snapshot]
}

// Option настраивает WorldManager
type Option func(*WorldManager)

// WithEventBus публикует события появления и удаления сущностей в шину
func WithEventBus(bus eventbus.EventBus) Option {
	return func(w *WorldManager) { w.bus = bus }
}

// WithMetrics задаёт метрики. По умолчанию метрики не регистрируются.
func WithMetrics(m *Metrics) Option {
	return func(w *WorldManager) { w.metrics = m }
}

// WithSink добавляет получателя снимков
func WithSink(sink SnapshotSink) Option {
	return func(w *WorldManager) { w.sinks = append(w.sinks, sink) }
}

// WithEntityManager подменяет реестр (часы и генератор случайных чисел в тестах)
func WithEntityManager(em *entity.EntityManager) Option {
	return func(w *WorldManager) { w.entities = em }
}

// NewWorldManager создаёт мир и загружает стартовую карту
func NewWorldManager(cfg config.SimulationConfig, opts ...Option) (*WorldManager, error) {
	buffer := cfg.CommandBuffer
	if buffer <= 0 {
		buffer = 1024
	}
	w := &WorldManager{
		cfg:            cfg,
		spawner:        NewSpawner(cfg.Spawner),
		tracer:         otel.Tracer(tracerName),
		logger:         logging.GetWorldLogger(),
		commands:       make(chan command, buffer),
		outputs:        make(chan tickOutput, 16),
		prevIDs:        make(map[string]entity.EntityType),
		sessions:       make(map[string]*entity.Player),
		sessionPlayers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.entities == nil {
		w.entities = entity.NewEntityManager()
	}
	if w.metrics == nil {
		w.metrics = NewMetrics(nil)
	}

	w.maps = NewMapManager(w.entities)
	for _, path := range cfg.MapFiles {
		if _, err := w.maps.RegisterMapFile(path); err != nil {
			return nil, err
		}
	}
	if err := w.maps.LoadMap(cfg.Map); err != nil {
		return nil, fmt.Errorf("load start map: %w", err)
	}
	return w, nil
}

// Entities возвращает реестр. Обращаться к нему можно только из потока симуляции.
func (w *WorldManager) Entities() *entity.EntityManager { return w.entities }

// Maps возвращает менеджер карт
func (w *WorldManager) Maps() *MapManager { return w.maps }

// AddSink добавляет получателя снимков
func (w *WorldManager) AddSink(sink SnapshotSink) {
	w.sinksMu.Lock()
	w.sinks = append(w.sinks, sink)
	w.sinksMu.Unlock()
}

// Latest возвращает последний снимок или nil до первого тика. Безопасно из любой горутины.
func (w *WorldManager) Latest() *Snapshot {
	return w.latest.Load()
}

// PlayerID возвращает id игрока сессии. Безопасно из любой горутины.
func (w *WorldManager) PlayerID(sessionID string) (string, bool) {
	w.sessionMu.RLock()
	defer w.sessionMu.RUnlock()
	id, ok := w.sessionPlayers[sessionID]
	return id, ok
}

// SessionCount возвращает число активных сессий
func (w *WorldManager) SessionCount() int {
	w.sessionMu.RLock()
	defer w.sessionMu.RUnlock()
	return len(w.sessionPlayers)
}

func (w *WorldManager) setSessionPlayer(sessionID, playerID string) {
	w.sessionMu.Lock()
	if playerID == "" {
		delete(w.sessionPlayers, sessionID)
	} else {
		w.sessionPlayers[sessionID] = playerID
	}
	n := len(w.sessionPlayers)
	w.sessionMu.Unlock()
	w.metrics.sessions.Set(float64(n))
}

// Run продвигает симуляцию с частотой tick_rate, пока не отменён контекст.
// Доставка снимков подписчикам идёт в отдельной горутине.
func (w *WorldManager) Run(ctx context.Context) error {
	interval := w.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		w.deliverLoop(ctx)
	}()

	w.logger.Info("Симуляция запущена: карта %s, тик %v", w.maps.CurrentMapID(), interval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			<-delivered
			w.logger.Info("Симуляция остановлена на тике %d", w.tick)
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			w.Tick(ctx, dt)
		}
	}
}

// Tick выполняет один шаг симуляции:
// команды -> спавн -> Update сущностей в порядке реестра -> prune -> снимок и дельта.
func (w *WorldManager) Tick(ctx context.Context, dt float64) *Snapshot {
	start := time.Now()
	_, span := w.tracer.Start(ctx, "world.Tick")
	defer span.End()

	w.tick++
	w.drainCommands()
	w.spawner.Update(dt, w.entities, w.maps.Grid())

	// Список фиксируется до обновления: созданные в этом тике сущности обновятся в следующем
	failures := 0
	for _, u := range w.entities.UpdatableEntities() {
		if err := updateEntity(u, dt); err != nil {
			failures++
			w.metrics.updateErrors.Inc()
			w.logger.Error("Тик %d: сущность %s (%s): %v", w.tick, u.ID(), u.Type(), err)
		}
	}

	for _, e := range w.entities.PruneEntities() {
		logging.LogEntityRemoved(e.ID(), string(e.Type()))
	}

	snap := w.buildSnapshot()
	var delta Delta
	delta, w.prevIDs, w.prevOrder = diffEntities(w.tick, w.prevIDs, w.prevOrder, snap)
	w.latest.Store(snap)
	w.recordMetrics(snap, delta)
	w.emit(tickOutput{snapshot: snap, delta: delta, events: w.deltaEvents(delta)})

	span.SetAttributes(
		attribute.Int64("world.tick", int64(w.tick)),
		attribute.Int("world.entities", len(snap.Entities)),
		attribute.Int("world.spawned", len(delta.Spawned)),
		attribute.Int("world.removed", len(delta.Removed)),
		attribute.Int("world.update_failures", failures),
	)
	w.metrics.tickDuration.Observe(time.Since(start).Seconds())
	return snap
}

// updateEntity изолирует сбой одной сущности: паника превращается в ошибку
func updateEntity(u entity.Updatable, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in update: %v", r)
		}
	}()
	return u.Update(dt)
}

func (w *WorldManager) buildSnapshot() *Snapshot {
	all := w.entities.Entities()
	snap := &Snapshot{
		Tick:      w.tick,
		Timestamp: time.Now().UTC(),
		MapID:     w.maps.CurrentMapID(),
		Entities:  make([]entity.RawEntity, 0, len(all)),
	}
	for _, e := range all {
		snap.Entities = append(snap.Entities, e.Serialize())
	}
	return snap
}

func (w *WorldManager) recordMetrics(snap *Snapshot, delta Delta) {
	w.metrics.entities.Reset()
	for t, n := range snap.CountByType() {
		w.metrics.entities.WithLabelValues(string(t)).Set(float64(n))
	}
	for _, raw := range delta.Spawned {
		if t, ok := raw["type"].(entity.EntityType); ok {
			w.metrics.spawned.WithLabelValues(string(t)).Inc()
		}
	}
	for _, r := range delta.Removed {
		w.metrics.removed.WithLabelValues(string(r.Type)).Inc()
	}
}

func (w *WorldManager) queueEvent(eventType string, priority int, payload interface{}) {
	if w.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventbus.SourceWorld, eventType, priority, payload)
	if err != nil {
		w.logger.Error("Событие %s: %v", eventType, err)
		return
	}
	ev.CorrelationID = fmt.Sprintf("%d", w.tick)
	w.pendingEvents = append(w.pendingEvents, ev)
}

// deltaEvents превращает дельту в события шины вместе с накопленными событиями сессий
func (w *WorldManager) deltaEvents(delta Delta) []*eventbus.Envelope {
	if w.bus == nil {
		return nil
	}
	for _, raw := range delta.Spawned {
		t, _ := raw["type"].(entity.EntityType)
		payload := eventbus.EntityEvent{Tick: delta.Tick, EntityID: raw.ID(), EntityType: string(t)}
		if pos, ok := raw["position"].(vec.Vec2Float); ok {
			payload.Position = &pos
		}
		w.queueEvent(eventbus.EventEntitySpawned, eventbus.PriorityEntity, payload)
	}
	for _, r := range delta.Removed {
		w.queueEvent(eventbus.EventEntityRemoved, eventbus.PriorityEntity,
			eventbus.EntityEvent{Tick: delta.Tick, EntityID: r.ID, EntityType: string(r.Type)})
	}
	events := w.pendingEvents
	w.pendingEvents = nil
	return events
}

// emit отдаёт результат тика горутине доставки, не блокируя симуляцию
func (w *WorldManager) emit(out tickOutput) {
	select {
	case w.outputs <- out:
	default:
		w.metrics.outputsDropped.Inc()
	}
}

func (w *WorldManager) deliverLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Flush(context.Background())
			return
		case out := <-w.outputs:
			w.deliver(ctx, out)
		}
	}
}

// Flush синхронно доставляет все накопленные результаты тиков
func (w *WorldManager) Flush(ctx context.Context) {
	for {
		select {
		case out := <-w.outputs:
			w.deliver(ctx, out)
		default:
			return
		}
	}
}

func (w *WorldManager) deliver(ctx context.Context, out tickOutput) {
	w.sinksMu.RLock()
	sinks := append([]SnapshotSink(nil), w.sinks...)
	w.sinksMu.RUnlock()

	for _, sink := range sinks {
		if err := sink.PublishSnapshot(ctx, out.snapshot, out.delta); err != nil {
			w.logger.Warn("Снимок тика %d: получатель %T: %v", out.snapshot.Tick, sink, err)
		}
	}
	for _, ev := range out.events {
		if err := w.bus.Publish(ctx, ev); err != nil {
			w.logger.Warn("Публикация %s: %v", ev.EventType, err)
		}
	}
}
