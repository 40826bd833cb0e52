package entity

import "github.com/annel0/survival-server/internal/physics"

const (
	TreeWidth  = 16
	TreeHeight = 16
)

// Tree статичное дерево, при взаимодействии собирается в древесину
type Tree struct {
	BaseEntity
	body
}

// NewTree создаёт дерево
func NewTree(em *EntityManager) *Tree {
	return &Tree{
		BaseEntity: newBaseEntity(em, EntityTypeTree),
		body:       body{width: TreeWidth, height: TreeHeight},
	}
}

func (t *Tree) Hitbox() physics.Hitbox { return t.box(0) }

// Interact собирает дерево
func (t *Tree) Interact(actor Collector) {
	t.Harvest(actor)
}

// Harvest кладёт древесину в инвентарь актёра и убирает дерево
func (t *Tree) Harvest(actor Collector) {
	pickUp(t, t.manager, actor, InventoryItem{Key: ItemWood})
}

// Serialize возвращает снимок дерева
func (t *Tree) Serialize() RawEntity {
	raw := t.BaseEntity.Serialize()
	raw["position"] = t.position
	return raw
}
