package entity

import "github.com/annel0/survival-server/internal/vec"

// EntityType тег типа сущности из закрытого перечисления
type EntityType string

const (
	EntityTypePlayer  EntityType = "player"
	EntityTypeZombie  EntityType = "zombie"
	EntityTypeTree    EntityType = "tree"
	EntityTypeWall    EntityType = "wall"
	EntityTypeBullet  EntityType = "bullet"
	EntityTypeWeapon  EntityType = "weapon"
	EntityTypeBandage EntityType = "bandage"
	EntityTypeSound   EntityType = "sound"
)

// Direction направление взгляда, приходит от клиента во вводе
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Vector возвращает единичный вектор направления. Неизвестное направление даёт нулевой вектор.
func (d Direction) Vector() vec.Vec2Float {
	switch d {
	case DirectionUp:
		return vec.Vec2Float{X: 0, Y: -1}
	case DirectionDown:
		return vec.Vec2Float{X: 0, Y: 1}
	case DirectionLeft:
		return vec.Vec2Float{X: -1, Y: 0}
	case DirectionRight:
		return vec.Vec2Float{X: 1, Y: 0}
	default:
		return vec.Zero
	}
}

// DirectionFromVector определяет направление по доминирующей оси вектора
func DirectionFromVector(v vec.Vec2Float, fallback Direction) Direction {
	if v.IsZero() {
		return fallback
	}
	if abs(v.X) > abs(v.Y) {
		if v.X > 0 {
			return DirectionRight
		}
		return DirectionLeft
	}
	if v.Y > 0 {
		return DirectionDown
	}
	return DirectionUp
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Input ввод игрока за тик, буферизуется сетевым слоем до начала тика
type Input struct {
	Facing        Direction `json:"facing"`
	InventoryItem *int      `json:"inventoryItem"` // слот с 1, nil если ничего не выбрано
	DX            float64   `json:"dx"`
	DY            float64   `json:"dy"`
	Interact      bool      `json:"interact"`
	Fire          bool      `json:"fire"`
	Drop          bool      `json:"drop"`
	Consume       bool      `json:"consume"`
}

// DefaultInput ввод, с которым создаётся игрок
func DefaultInput() Input {
	slot := 1
	return Input{Facing: DirectionRight, InventoryItem: &slot}
}

// RawEntity сериализованное состояние сущности для клиентов
type RawEntity map[string]interface{}

// ID возвращает id записи
func (r RawEntity) ID() string {
	id, _ := r["id"].(string)
	return id
}
