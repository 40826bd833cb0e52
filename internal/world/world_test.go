package world

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/survival-server/internal/config"
	"github.com/annel0/survival-server/internal/eventbus"
	"github.com/annel0/survival-server/internal/world/entity"
)

const (
	testDT      = 0.05
	testTimeout = 2 * time.Second
	testPoll    = 5 * time.Millisecond
)

func testConfig() config.SimulationConfig {
	cfg := config.Default().Simulation
	cfg.Spawner.Enabled = false
	cfg.StarterKit = true
	return cfg
}

func newTestWorld(t *testing.T, opts ...Option) *WorldManager {
	t.Helper()
	w, err := NewWorldManager(testConfig(), opts...)
	require.NoError(t, err)
	return w
}

// probe сущность для проверки порядка и изоляции обновлений
type probe struct {
	id      string
	panics  bool
	fails   bool
	updates int
}

func (p *probe) ID() string              { return p.id }
func (p *probe) Type() entity.EntityType { return "probe" }
func (p *probe) Serialize() entity.RawEntity {
	return entity.RawEntity{"id": p.id, "type": p.Type()}
}
func (p *probe) Update(dt float64) error {
	p.updates++
	if p.panics {
		panic("probe exploded")
	}
	if p.fails {
		return errors.New("probe failed")
	}
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	snaps  []*Snapshot
	deltas []Delta
}

func (s *recordingSink) PublishSnapshot(ctx context.Context, snap *Snapshot, delta Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	s.deltas = append(s.deltas, delta)
	return nil
}

func TestWorldManager_LoadsStartMap(t *testing.T) {
	w := newTestWorld(t)

	assert.Equal(t, TestingMapID, w.Maps().CurrentMapID())
	assert.Equal(t, 6, w.Entities().Count(), "Тестовая карта содержит 4 дерева и 2 стены")
	assert.Nil(t, w.Latest(), "До первого тика снимка нет")

	_, err := NewWorldManager(config.SimulationConfig{Map: "nowhere"})
	assert.ErrorIs(t, err, ErrUnknownMap)
}

func TestWorldManager_FirstTickSpawnsStaticEntities(t *testing.T) {
	w := newTestWorld(t)

	snap := w.Tick(context.Background(), testDT)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Equal(t, TestingMapID, snap.MapID)
	assert.Equal(t, 4, snap.CountByType()[entity.EntityTypeTree])
	assert.Equal(t, 2, snap.CountByType()[entity.EntityTypeWall])
	assert.Same(t, snap, w.Latest())

	sink := &recordingSink{}
	w.AddSink(sink)
	w.Flush(context.Background())
	require.Len(t, sink.deltas, 1)
	assert.Len(t, sink.deltas[0].Spawned, 6, "Статические сущности карты появляются в дельте первого тика")
	assert.Empty(t, sink.deltas[0].Removed)

	w.Tick(context.Background(), testDT)
	w.Flush(context.Background())
	require.Len(t, sink.deltas, 2)
	assert.True(t, sink.deltas[1].Empty(), "Без изменений дельта пуста")
}

func TestWorldManager_JoinInputLeave(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	require.NoError(t, w.Join("s1"))
	require.NoError(t, w.Join("s1"), "Повторный вход не создаёт второго игрока")
	_, ok := w.PlayerID("s1")
	assert.False(t, ok, "Команда применяется только в начале тика")

	snap := w.Tick(ctx, testDT)
	playerID, ok := w.PlayerID("s1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.CountByType()[entity.EntityTypePlayer])
	assert.Equal(t, 1, w.SessionCount())

	raw, ok := snap.Find(playerID)
	require.True(t, ok)
	inventory := raw["inventory"].([]entity.InventoryItem)
	assert.Len(t, inventory, 6, "Стартовый набор выдан")

	require.NoError(t, w.SetInput("s1", entity.Input{Facing: entity.DirectionDown, DY: 1}))
	w.Tick(ctx, testDT)
	p := w.sessions["s1"]
	require.NotNil(t, p)
	assert.InDelta(t, entity.PlayerSpeed*testDT, p.Position().Y, 1e-9, "Игрок сдвинулся вниз за один тик")

	require.NoError(t, w.Leave("s1"))
	snap = w.Tick(ctx, testDT)
	_, ok = snap.Find(playerID)
	assert.False(t, ok, "Игрок удалён в том же тике")
	_, ok = w.PlayerID("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, w.SessionCount())
}

func TestWorldManager_UnknownSessionIsIgnored(t *testing.T) {
	w := newTestWorld(t)

	require.NoError(t, w.SetInput("ghost", entity.DefaultInput()))
	require.NoError(t, w.Leave("ghost"))
	snap := w.Tick(context.Background(), testDT)
	assert.Equal(t, 6, len(snap.Entities), "Команды неизвестной сессии не меняют мир")
}

func TestWorldManager_CommandQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.CommandBuffer = 1
	w, err := NewWorldManager(cfg)
	require.NoError(t, err)

	require.NoError(t, w.Join("a"))
	assert.ErrorIs(t, w.Join("b"), ErrCommandQueueFull)
}

func TestWorldManager_LeaveSurvivesFullQueue(t *testing.T) {
	cfg := testConfig()
	cfg.CommandBuffer = 1
	w, err := NewWorldManager(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, w.Join("a"))
	w.Tick(ctx, testDT)
	_, ok := w.PlayerID("a")
	require.True(t, ok)

	require.NoError(t, w.SetCrafting("a", true))
	require.ErrorIs(t, w.SetCrafting("a", false), ErrCommandQueueFull)
	require.NoError(t, w.Leave("a"), "Выход не отклоняется при полной очереди")

	snap := w.Tick(ctx, testDT)
	_, ok = w.PlayerID("a")
	assert.False(t, ok, "Отложенный выход применён в следующем тике")
	assert.Equal(t, 0, snap.CountByType()[entity.EntityTypePlayer])
	assert.Equal(t, 0, w.SessionCount())
}

func TestWorldManager_Craft(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	require.NoError(t, w.Join("s1"))
	w.Tick(ctx, testDT)
	require.NoError(t, w.SetCrafting("s1", true))
	require.NoError(t, w.Craft("s1", entity.ItemBandage))
	w.Tick(ctx, testDT)

	p := w.sessions["s1"]
	assert.True(t, p.HasInInventory(entity.ItemBandage))
	assert.False(t, p.IsCrafting(), "Успешный крафт завершает режим крафта")

	wood := 0
	for _, item := range p.Inventory() {
		if item.Key == entity.ItemWood {
			wood++
		}
	}
	assert.Equal(t, 1, wood, "Рецепт забрал два дерева")
}

func TestWorldManager_UpdateIsolation(t *testing.T) {
	w := newTestWorld(t)
	broken := &probe{id: "broken", panics: true}
	failing := &probe{id: "failing", fails: true}
	healthy := &probe{id: "healthy"}
	w.Entities().AddEntities(broken, failing, healthy)

	snap := w.Tick(context.Background(), testDT)

	assert.Equal(t, 1, broken.updates)
	assert.Equal(t, 1, failing.updates)
	assert.Equal(t, 1, healthy.updates, "Сбой одной сущности не прерывает тик")
	_, ok := snap.Find("healthy")
	assert.True(t, ok)
}

func TestWorldManager_PruneBeforeSnapshot(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	w.Tick(ctx, testDT)

	var tree entity.Entity
	for _, e := range w.Entities().Entities() {
		if e.Type() == entity.EntityTypeTree {
			tree = e
			break
		}
	}
	require.NotNil(t, tree)
	w.Entities().MarkEntityForRemoval(tree)

	w.Flush(ctx)
	sink := &recordingSink{}
	w.AddSink(sink)
	snap := w.Tick(ctx, testDT)
	w.Flush(ctx)

	_, ok := snap.Find(tree.ID())
	assert.False(t, ok, "Помеченная сущность не попадает в снимок")
	require.Len(t, sink.deltas, 1)
	assert.Equal(t, []RemovedEntity{{ID: tree.ID(), Type: entity.EntityTypeTree}}, sink.deltas[0].Removed)
}

func TestWorldManager_SoundLivesOneSnapshot(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	require.NoError(t, w.Join("s1"))
	pistol := 2
	require.NoError(t, w.SetInput("s1", entity.Input{Facing: entity.DirectionRight, InventoryItem: &pistol, Fire: true}))

	first := w.Tick(ctx, testDT)
	assert.Equal(t, 1, first.CountByType()[entity.EntityTypeSound], "Выстрел слышен в снимке тика")
	assert.Equal(t, 1, first.CountByType()[entity.EntityTypeBullet])

	second := w.Tick(ctx, testDT)
	assert.Equal(t, 0, second.CountByType()[entity.EntityTypeSound], "Звук удаляется на следующем тике")
	assert.Equal(t, 1, second.CountByType()[entity.EntityTypeBullet], "Пуля ещё летит, перезарядка не прошла")
}

func TestWorldManager_PublishesEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	var (
		mu     sync.Mutex
		counts = map[string]int{}
	)
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		counts[ev.EventType]++
		mu.Unlock()
	})
	require.NoError(t, err)

	w := newTestWorld(t, WithEventBus(bus))
	require.NoError(t, w.Join("s1"))
	w.Tick(context.Background(), testDT)
	w.Flush(context.Background())
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 7, counts[eventbus.EventEntitySpawned], "Статика карты и игрок")
	assert.Equal(t, 1, counts[eventbus.EventPlayerJoined])
}

func TestWorldManager_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := newTestWorld(t, WithMetrics(NewMetrics(reg)))
	require.NoError(t, w.Join("s1"))
	w.Tick(context.Background(), testDT)

	families, err := reg.Gather()
	require.NoError(t, err)

	gauges := map[string]float64{}
	for _, mf := range families {
		switch mf.GetName() {
		case "survival_world_entities":
			for _, m := range mf.GetMetric() {
				gauges[m.GetLabel()[0].GetValue()] = m.GetGauge().GetValue()
			}
		case "survival_world_sessions":
			assert.Equal(t, float64(1), mf.GetMetric()[0].GetGauge().GetValue())
		case "survival_world_tick_duration_seconds":
			assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.Equal(t, float64(4), gauges["tree"])
	assert.Equal(t, float64(1), gauges["player"])
}

func TestWorldManager_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.TickRate = 200
	w, err := NewWorldManager(cfg)
	require.NoError(t, err)
	sink := &recordingSink{}
	w.AddSink(sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.snaps) >= 3
	}, testTimeout, testPoll)
	cancel()
	assert.NoError(t, <-done)
}
