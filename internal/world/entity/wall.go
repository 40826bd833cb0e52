package entity

import "github.com/annel0/survival-server/internal/physics"

const (
	WallWidth     = 16
	WallHeight    = 16
	WallMaxHealth = 5
)

// Wall стена, которую строят игроки и ломают зомби
type Wall struct {
	BaseEntity
	body

	health int
}

// NewWall создаёт стену. Здоровье вне диапазона (0, WallMaxHealth] заменяется максимумом.
func NewWall(em *EntityManager, health int) *Wall {
	if health <= 0 || health > WallMaxHealth {
		health = WallMaxHealth
	}
	return &Wall{
		BaseEntity: newBaseEntity(em, EntityTypeWall),
		body:       body{width: WallWidth, height: WallHeight},
		health:     health,
	}
}

func (w *Wall) Health() int               { return w.health }
func (w *Wall) MaxHealth() int            { return WallMaxHealth }
func (w *Wall) IsDead() bool              { return w.health <= 0 }
func (w *Wall) Hitbox() physics.Hitbox    { return w.box(0) }
func (w *Wall) DamageBox() physics.Hitbox { return w.box(0) }

// Damage наносит урон. Разрушенная стена помечается на удаление, но до prune остаётся видимой.
func (w *Wall) Damage(amount int) {
	w.health -= amount
	if w.health < 0 {
		w.health = 0
	}
	if w.IsDead() {
		w.manager.MarkEntityForRemoval(w)
	}
}

// Interact подбирает стену вместе с её текущим здоровьем
func (w *Wall) Interact(actor Collector) {
	if w.IsDead() {
		return
	}
	pickUp(w, w.manager, actor, InventoryItem{Key: ItemWall, State: &ItemState{Health: w.health}})
}

// Serialize возвращает снимок стены
func (w *Wall) Serialize() RawEntity {
	raw := w.BaseEntity.Serialize()
	raw["position"] = w.position
	raw["health"] = w.health
	return raw
}
