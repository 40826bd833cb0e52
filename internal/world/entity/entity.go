package entity

import (
	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
)

// Entity любая симулируемая сущность с уникальным id и тегом типа
type Entity interface {
	ID() string
	Type() EntityType
	Serialize() RawEntity
}

// Positionable сущность с позицией в мире
type Positionable interface {
	Entity
	Position() vec.Vec2Float
	SetPosition(position vec.Vec2Float)
	CenterPosition() vec.Vec2Float
}

// Movable сущность со скоростью
type Movable interface {
	Entity
	Velocity() vec.Vec2Float
	SetVelocity(velocity vec.Vec2Float)
}

// Collidable сущность, участвующая в проверках пересечения
type Collidable interface {
	Entity
	Hitbox() physics.Hitbox
}

// Damageable сущность со здоровьем
type Damageable interface {
	Positionable
	Health() int
	MaxHealth() int
	Damage(amount int)
	IsDead() bool
	DamageBox() physics.Hitbox
}

// Updatable сущность, участвующая в проходе обновления каждого тика.
// Ошибка означает сбой именно этой сущности и не мешает обновлению остальных.
type Updatable interface {
	Entity
	Update(deltaTime float64) error
}

// Collector актёр, способный забирать предметы в инвентарь
type Collector interface {
	Positionable
	AddItem(item InventoryItem) bool
}

// Healable цель эффекта расходника
type Healable interface {
	Health() int
	MaxHealth() int
	Heal(amount int)
}

// Interactable сущность, реагирующая на взаимодействие актёра поблизости
type Interactable interface {
	Positionable
	Interact(actor Collector)
}

// Consumable сущность, которую можно употребить из инвентаря.
// Возвращает true, если эффект применён и предмет нужно убрать.
type Consumable interface {
	Entity
	Consume(target Healable) bool
}

// Harvestable сущность, которую можно собрать
type Harvestable interface {
	Entity
	Harvest(actor Collector)
}

// BaseEntity общая часть всех сущностей: идентичность и ссылка на реестр
type BaseEntity struct {
	id         string
	entityType EntityType
	manager    *EntityManager
}

func newBaseEntity(manager *EntityManager, entityType EntityType) BaseEntity {
	return BaseEntity{
		id:         manager.GenerateEntityID(),
		entityType: entityType,
		manager:    manager,
	}
}

// ID возвращает идентификатор
func (b *BaseEntity) ID() string { return b.id }

// Type возвращает тип
func (b *BaseEntity) Type() EntityType { return b.entityType }

// Manager возвращает реестр, которому принадлежит сущность
func (b *BaseEntity) Manager() *EntityManager { return b.manager }

// Serialize возвращает общие поля снимка
func (b *BaseEntity) Serialize() RawEntity {
	return RawEntity{
		"id":   b.id,
		"type": b.entityType,
	}
}

// body позиция и размер прямоугольной сущности
type body struct {
	position vec.Vec2Float
	width    float64
	height   float64
}

// Position возвращает левый верхний угол
func (b *body) Position() vec.Vec2Float { return b.position }

// SetPosition устанавливает левый верхний угол
func (b *body) SetPosition(position vec.Vec2Float) { b.position = position }

// CenterPosition возвращает центр
func (b *body) CenterPosition() vec.Vec2Float {
	return vec.Vec2Float{X: b.position.X + b.width/2, Y: b.position.Y + b.height/2}
}

func (b *body) box(padding float64) physics.Hitbox {
	return physics.NewHitbox(b.position, b.width, b.height, padding)
}

var (
	_ Damageable   = (*Player)(nil)
	_ Collidable   = (*Player)(nil)
	_ Movable      = (*Player)(nil)
	_ Updatable    = (*Player)(nil)
	_ Collector    = (*Player)(nil)
	_ Healable     = (*Player)(nil)
	_ Damageable   = (*Zombie)(nil)
	_ Collidable   = (*Zombie)(nil)
	_ Movable      = (*Zombie)(nil)
	_ Updatable    = (*Zombie)(nil)
	_ Interactable = (*Tree)(nil)
	_ Harvestable  = (*Tree)(nil)
	_ Collidable   = (*Tree)(nil)
	_ Interactable = (*Wall)(nil)
	_ Damageable   = (*Wall)(nil)
	_ Collidable   = (*Wall)(nil)
	_ Interactable = (*Weapon)(nil)
	_ Interactable = (*Bandage)(nil)
	_ Consumable   = (*Bandage)(nil)
	_ Updatable    = (*Bullet)(nil)
	_ Movable      = (*Bullet)(nil)
	_ Positionable = (*Bullet)(nil)
	_ Updatable    = (*Sound)(nil)
	_ Positionable = (*Sound)(nil)
)
