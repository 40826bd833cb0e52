package world

import (
	"context"
	"time"

	"github.com/annel0/survival-server/internal/world/entity"
)

// Snapshot сериализованное состояние мира после prune.
// Порядок сущностей совпадает с порядком реестра.
type Snapshot struct {
	Tick      uint64             `json:"tick"`
	Timestamp time.Time          `json:"timestamp"`
	MapID     string             `json:"map"`
	Entities  []entity.RawEntity `json:"entities"`
}

// Find ищет сущность в снимке по id
func (s *Snapshot) Find(id string) (entity.RawEntity, bool) {
	for _, e := range s.Entities {
		if e.ID() == id {
			return e, true
		}
	}
	return nil, false
}

// CountByType возвращает количество сущностей каждого типа
func (s *Snapshot) CountByType() map[entity.EntityType]int {
	counts := make(map[entity.EntityType]int)
	for _, e := range s.Entities {
		if t, ok := e["type"].(entity.EntityType); ok {
			counts[t]++
		}
	}
	return counts
}

// RemovedEntity запись об удалённой сущности
type RemovedEntity struct {
	ID   string            `json:"id"`
	Type entity.EntityType `json:"type"`
}

// Delta разница наборов сущностей между соседними тиками
type Delta struct {
	Tick    uint64             `json:"tick"`
	Spawned []entity.RawEntity `json:"spawned"`
	Removed []RemovedEntity    `json:"removed"`
}

// Empty сообщает, что набор сущностей не изменился
func (d Delta) Empty() bool {
	return len(d.Spawned) == 0 && len(d.Removed) == 0
}

// SnapshotSink получатель снимков и дельт (сетевой хаб, кэш).
// Вызывается вне потока симуляции.
type SnapshotSink interface {
	PublishSnapshot(ctx context.Context, snap *Snapshot, delta Delta) error
}

// diffEntities сравнивает наборы id предыдущего и текущего снимка.
// Отсутствующая ранее сущность считается появившейся, пропавшая считается удалённой.
func diffEntities(tick uint64, prev map[string]entity.EntityType, order []string, snap *Snapshot) (Delta, map[string]entity.EntityType, []string) {
	delta := Delta{Tick: tick}
	current := make(map[string]entity.EntityType, len(snap.Entities))
	currentOrder := make([]string, 0, len(snap.Entities))

	for _, raw := range snap.Entities {
		id := raw.ID()
		t, _ := raw["type"].(entity.EntityType)
		current[id] = t
		currentOrder = append(currentOrder, id)
		if _, seen := prev[id]; !seen {
			delta.Spawned = append(delta.Spawned, raw)
		}
	}
	for _, id := range order {
		if _, still := current[id]; !still {
			delta.Removed = append(delta.Removed, RemovedEntity{ID: id, Type: prev[id]})
		}
	}
	return delta, current, currentOrder
}
