package entity

import (
	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
)

const (
	BulletSize      = 4
	BulletSpeed     = 100.0
	BulletMaxTravel = 100.0
	BulletDamage    = 1
)

// Bullet снаряд, летящий по прямой до первого живого зомби или до предела дальности
type Bullet struct {
	BaseEntity
	body

	velocity vec.Vec2Float
	traveled float64
}

// NewBullet создаёт снаряд, летящий в направлении direction
func NewBullet(em *EntityManager, direction vec.Vec2Float) *Bullet {
	return &Bullet{
		BaseEntity: newBaseEntity(em, EntityTypeBullet),
		body:       body{width: BulletSize, height: BulletSize},
		velocity:   direction.Normalized().Mul(BulletSpeed),
	}
}

func (b *Bullet) Velocity() vec.Vec2Float            { return b.velocity }
func (b *Bullet) SetVelocity(velocity vec.Vec2Float) { b.velocity = velocity }

// Traveled возвращает пройденное расстояние
func (b *Bullet) Traveled() float64 { return b.traveled }

// Update двигает снаряд и проверяет попадание
func (b *Bullet) Update(dt float64) error {
	if b.manager.IsMarkedForRemoval(b) {
		return nil
	}

	step := b.velocity.Mul(dt)
	b.position = b.position.Add(step)
	b.traveled += step.Length()

	area := b.box(0)
	for _, e := range b.manager.Entities() {
		z, ok := e.(*Zombie)
		if !ok || z.IsDead() {
			continue
		}
		if physics.Overlaps(area, z.DamageBox()) {
			z.Damage(BulletDamage)
			b.manager.MarkEntityForRemoval(b)
			return nil
		}
	}

	if b.traveled >= BulletMaxTravel {
		b.manager.MarkEntityForRemoval(b)
	}
	return nil
}

// Serialize возвращает снимок снаряда
func (b *Bullet) Serialize() RawEntity {
	raw := b.BaseEntity.Serialize()
	raw["position"] = b.position
	raw["velocity"] = b.velocity
	return raw
}
