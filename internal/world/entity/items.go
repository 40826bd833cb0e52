package entity

import (
	"errors"
	"fmt"
)

// ItemKey ключ вида предмета в инвентаре
type ItemKey string

const (
	ItemKnife   ItemKey = "Knife"
	ItemPistol  ItemKey = "Pistol"
	ItemShotgun ItemKey = "Shotgun"
	ItemWood    ItemKey = "Wood"
	ItemWall    ItemKey = "Wall"
	ItemBandage ItemKey = "Bandage"
)

// ErrUnknownItemKind возвращается при попытке превратить в сущность предмет неизвестного вида
var ErrUnknownItemKind = errors.New("unknown item kind")

// ItemState дополнительное состояние предмета, переживающее подбор и выброс
type ItemState struct {
	Health int `json:"health,omitempty"`
}

// InventoryItem предмет в инвентаре
type InventoryItem struct {
	Key   ItemKey    `json:"key"`
	State *ItemState `json:"state,omitempty"`
}

// IsWeapon сообщает, является ли предмет оружием
func (k ItemKey) IsWeapon() bool {
	switch k {
	case ItemKnife, ItemPistol, ItemShotgun:
		return true
	}
	return false
}

// NewEntityFromItem создаёт самостоятельную сущность мира из предмета инвентаря.
// Сущность не регистрируется в реестре, позицию задаёт вызывающий.
func NewEntityFromItem(em *EntityManager, item InventoryItem) (Positionable, error) {
	switch item.Key {
	case ItemKnife, ItemPistol, ItemShotgun:
		return NewWeapon(em, item.Key), nil
	case ItemWood:
		return NewTree(em), nil
	case ItemWall:
		health := 0
		if item.State != nil {
			health = item.State.Health
		}
		return NewWall(em, health), nil
	case ItemBandage:
		return NewBandage(em), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownItemKind, item.Key)
	}
}

// newConsumableFromItem создаёт временную сущность, через которую применяется эффект предмета.
// Для предметов, которые нельзя употребить, возвращает false.
func newConsumableFromItem(em *EntityManager, item InventoryItem) (Consumable, bool) {
	switch item.Key {
	case ItemBandage:
		return NewBandage(em), true
	default:
		return nil, false
	}
}
