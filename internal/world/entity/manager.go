package entity

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
)

// GridProvider отдаёт сетку проходимости активной карты
type GridProvider interface {
	Grid() *physics.Grid
}

// EntityManager реестр всех сущностей мира.
// Порядок добавления сохраняется и определяет порядок обновления.
// Удаление отложенное: MarkEntityForRemoval только помечает сущность,
// физически она исчезает в PruneEntities, который вызывается раз за тик.
type EntityManager struct {
	entities []Entity
	pending  map[string]struct{}
	nextID   uint64

	grid  GridProvider
	clock func() time.Time
	rng   *rand.Rand

	mu sync.RWMutex
}

// NewEntityManager создаёт пустой реестр
func NewEntityManager() *EntityManager {
	return &EntityManager{
		entities: make([]Entity, 0, 64),
		pending:  make(map[string]struct{}),
		clock:    time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetClock подменяет источник времени для кулдаунов атак
func (em *EntityManager) SetClock(clock func() time.Time) {
	em.clock = clock
}

// Now возвращает текущее время по часам реестра
func (em *EntityManager) Now() time.Time {
	return em.clock()
}

// SetRand подменяет генератор случайных чисел
func (em *EntityManager) SetRand(rng *rand.Rand) {
	em.rng = rng
}

// Rand возвращает генератор случайных чисел симуляции
func (em *EntityManager) Rand() *rand.Rand {
	return em.rng
}

// SetGridProvider задаёт источник сетки для поиска пути
func (em *EntityManager) SetGridProvider(provider GridProvider) {
	em.grid = provider
}

// Grid возвращает сетку активной карты или nil
func (em *EntityManager) Grid() *physics.Grid {
	if em.grid == nil {
		return nil
	}
	return em.grid.Grid()
}

// GenerateEntityID выдаёт новый уникальный id. Id не переиспользуются.
func (em *EntityManager) GenerateEntityID() string {
	id := atomic.AddUint64(&em.nextID, 1) - 1
	return strconv.FormatUint(id, 10)
}

// AddEntity регистрирует сущность в конце порядка обновления
func (em *EntityManager) AddEntity(e Entity) {
	em.mu.Lock()
	em.entities = append(em.entities, e)
	em.mu.Unlock()
}

// AddEntities регистрирует несколько сущностей по порядку
func (em *EntityManager) AddEntities(entities ...Entity) {
	em.mu.Lock()
	em.entities = append(em.entities, entities...)
	em.mu.Unlock()
}

// MarkEntityForRemoval помечает сущность на удаление. Повторная пометка ничего не меняет.
func (em *EntityManager) MarkEntityForRemoval(e Entity) {
	em.mu.Lock()
	em.pending[e.ID()] = struct{}{}
	em.mu.Unlock()
}

// IsMarkedForRemoval сообщает, ждёт ли сущность удаления
func (em *EntityManager) IsMarkedForRemoval(e Entity) bool {
	em.mu.RLock()
	defer em.mu.RUnlock()
	_, ok := em.pending[e.ID()]
	return ok
}

// PruneEntities удаляет помеченные сущности одним проходом и возвращает их
func (em *EntityManager) PruneEntities() []Entity {
	em.mu.Lock()
	defer em.mu.Unlock()

	if len(em.pending) == 0 {
		return nil
	}

	var removed []Entity
	kept := em.entities[:0]
	for _, e := range em.entities {
		if _, ok := em.pending[e.ID()]; ok {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	// Обнуляем хвост, чтобы не держать ссылки на удалённые сущности
	for i := len(kept); i < len(em.entities); i++ {
		em.entities[i] = nil
	}
	em.entities = kept
	em.pending = make(map[string]struct{})
	return removed
}

// Clear удаляет все сущности и пометки
func (em *EntityManager) Clear() {
	em.mu.Lock()
	em.entities = make([]Entity, 0, 64)
	em.pending = make(map[string]struct{})
	em.mu.Unlock()
}

// Count возвращает число зарегистрированных сущностей
func (em *EntityManager) Count() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.entities)
}

// Entities возвращает копию списка сущностей в порядке добавления
func (em *EntityManager) Entities() []Entity {
	em.mu.RLock()
	defer em.mu.RUnlock()
	out := make([]Entity, len(em.entities))
	copy(out, em.entities)
	return out
}

// GetEntity ищет сущность по id
func (em *EntityManager) GetEntity(id string) (Entity, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	for _, e := range em.entities {
		if e.ID() == id {
			return e, true
		}
	}
	return nil, false
}

// UpdatableEntities возвращает сущности с поведением обновления
func (em *EntityManager) UpdatableEntities() []Updatable {
	var out []Updatable
	for _, e := range em.Entities() {
		if u, ok := e.(Updatable); ok {
			out = append(out, u)
		}
	}
	return out
}

// PositionableEntities возвращает сущности с позицией
func (em *EntityManager) PositionableEntities() []Positionable {
	var out []Positionable
	for _, e := range em.Entities() {
		if p, ok := e.(Positionable); ok {
			out = append(out, p)
		}
	}
	return out
}

// CollidableEntities возвращает сущности с хитбоксом
func (em *EntityManager) CollidableEntities() []Collidable {
	var out []Collidable
	for _, e := range em.Entities() {
		if c, ok := e.(Collidable); ok {
			out = append(out, c)
		}
	}
	return out
}

// FilterHarvestableEntities отбирает собираемые сущности из произвольного списка
func (em *EntityManager) FilterHarvestableEntities(entities []Entity) []Harvestable {
	var out []Harvestable
	for _, e := range entities {
		if h, ok := e.(Harvestable); ok {
			out = append(out, h)
		}
	}
	return out
}

// Players возвращает всех игроков, включая мёртвых
func (em *EntityManager) Players() []*Player {
	var out []*Player
	for _, e := range em.Entities() {
		if p, ok := e.(*Player); ok {
			out = append(out, p)
		}
	}
	return out
}

// NearbyEntities возвращает позиционируемые сущности не дальше radius от position.
// Расстояние считается по левому верхнему углу сущности. Если заданы типы,
// остаются только сущности этих типов. math.Inf(1) снимает ограничение по радиусу.
func (em *EntityManager) NearbyEntities(position vec.Vec2Float, radius float64, types ...EntityType) []Positionable {
	var out []Positionable
	for _, p := range em.PositionableEntities() {
		if len(types) > 0 && !containsType(types, p.Type()) {
			continue
		}
		if physics.Distance(p.Position(), position) <= radius {
			out = append(out, p)
		}
	}
	return out
}

// IsColliding проверяет пересечение хитбокса сущности с любой другой
// сущностью, кроме сущностей перечисленных типов
func (em *EntityManager) IsColliding(e Collidable, excluded ...EntityType) bool {
	return em.collides(e, func(t EntityType) bool {
		return !containsType(excluded, t)
	})
}

// IsCollidingWith проверяет пересечение хитбокса сущности только
// с сущностями перечисленных типов
func (em *EntityManager) IsCollidingWith(e Collidable, included ...EntityType) bool {
	return em.collides(e, func(t EntityType) bool {
		return containsType(included, t)
	})
}

func (em *EntityManager) collides(e Collidable, accept func(EntityType) bool) bool {
	hitbox := e.Hitbox()
	for _, other := range em.CollidableEntities() {
		if other.ID() == e.ID() || !accept(other.Type()) {
			continue
		}
		if physics.Overlaps(hitbox, other.Hitbox()) {
			return true
		}
	}
	return false
}

// ClosestAlivePlayer возвращает ближайшего живого игрока к центру from или nil
func (em *EntityManager) ClosestAlivePlayer(from Positionable) *Player {
	var (
		closest *Player
		best    = math.Inf(1)
	)
	origin := from.CenterPosition()
	for _, p := range em.Players() {
		if p.IsDead() {
			continue
		}
		if d := physics.Distance(origin, p.CenterPosition()); d < best {
			best = d
			closest = p
		}
	}
	return closest
}

func containsType(types []EntityType, t EntityType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
