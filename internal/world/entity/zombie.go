package entity

import (
	"math"
	"time"

	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
)

const (
	ZombieWidth               = 16
	ZombieHeight              = 16
	ZombieHitboxPadding       = 4
	ZombieSpeed               = 35.0
	ZombieMaxHealth           = 3
	ZombieWaypointThreshold   = 1.0
	ZombieAttackRadius        = 24.0
	ZombieAttackDamage        = 1
	ZombieAttackCooldown      = time.Second
	ZombieWallDetectionRadius = 48.0
)

// ZombieState состояние автомата преследования
type ZombieState int

const (
	// ZombieIdle живых игроков нет, зомби стоит
	ZombieIdle ZombieState = iota
	// ZombiePursuing зомби идёт к точке маршрута
	ZombiePursuing
	// ZombieAttacking в этом тике зомби нанёс удар
	ZombieAttacking
)

func (s ZombieState) String() string {
	switch s {
	case ZombieIdle:
		return "idle"
	case ZombiePursuing:
		return "pursuing"
	case ZombieAttacking:
		return "attacking"
	default:
		return "unknown"
	}
}

// Zombie враждебное существо, преследующее ближайшего живого игрока
type Zombie struct {
	BaseEntity
	body

	velocity       vec.Vec2Float
	facing         Direction
	health         int
	waypoint       *vec.Vec2Float
	lastAttackTime time.Time
	state          ZombieState
}

// NewZombie создаёт зомби с полным здоровьем
func NewZombie(em *EntityManager) *Zombie {
	return &Zombie{
		BaseEntity: newBaseEntity(em, EntityTypeZombie),
		body:       body{width: ZombieWidth, height: ZombieHeight},
		facing:     DirectionDown,
		health:     ZombieMaxHealth,
		state:      ZombieIdle,
	}
}

func (z *Zombie) Velocity() vec.Vec2Float            { return z.velocity }
func (z *Zombie) SetVelocity(velocity vec.Vec2Float) { z.velocity = velocity }
func (z *Zombie) Facing() Direction                  { return z.facing }
func (z *Zombie) Health() int                        { return z.health }
func (z *Zombie) MaxHealth() int                     { return ZombieMaxHealth }
func (z *Zombie) IsDead() bool                       { return z.health <= 0 }
func (z *Zombie) State() ZombieState                 { return z.state }
func (z *Zombie) Hitbox() physics.Hitbox             { return z.box(ZombieHitboxPadding) }
func (z *Zombie) DamageBox() physics.Hitbox          { return z.box(0) }

// Waypoint возвращает текущую точку маршрута
func (z *Zombie) Waypoint() (vec.Vec2Float, bool) {
	if z.waypoint == nil {
		return vec.Zero, false
	}
	return *z.waypoint, true
}

// Damage наносит урон. При здоровье не выше нуля зомби сразу помечается на удаление.
func (z *Zombie) Damage(amount int) {
	z.health -= amount
	if z.health < 0 {
		z.health = 0
	}
	if z.IsDead() {
		z.manager.MarkEntityForRemoval(z)
	}
}

func (z *Zombie) setState(state ZombieState) {
	if z.state != state {
		logging.Trace("Zombie %s: %s -> %s", z.id, z.state, state)
	}
	z.state = state
}

// Update выполняет один шаг автомата: выбор цели, маршрут, движение, атака
func (z *Zombie) Update(dt float64) error {
	if z.IsDead() {
		return nil
	}

	target := z.manager.ClosestAlivePlayer(z)
	if target == nil {
		z.velocity = vec.Zero
		z.waypoint = nil
		z.setState(ZombieIdle)
		return nil
	}

	if z.isAtWaypoint() {
		z.waypoint = nil
		if wp, ok := physics.PathTowards(z.CenterPosition(), target.CenterPosition(), z.manager.Grid()); ok {
			z.waypoint = &wp
		}
	}

	if z.waypoint != nil {
		z.velocity = physics.VelocityTowards(z.CenterPosition(), *z.waypoint).Mul(ZombieSpeed)
	} else {
		z.velocity = vec.Zero
	}
	z.facing = DirectionFromVector(z.velocity, z.facing)
	z.setState(ZombiePursuing)

	z.handleMovement(dt)

	if z.handleAttack() {
		z.setState(ZombieAttacking)
	}
	return nil
}

// isAtWaypoint сообщает, что точки маршрута нет или центр достиг её по обеим осям
func (z *Zombie) isAtWaypoint() bool {
	if z.waypoint == nil {
		return true
	}
	center := z.CenterPosition()
	return math.Abs(center.X-z.waypoint.X) <= ZombieWaypointThreshold &&
		math.Abs(center.Y-z.waypoint.Y) <= ZombieWaypointThreshold
}

func (z *Zombie) handleMovement(dt float64) {
	if z.velocity.IsZero() {
		return
	}
	from := z.position

	z.position.X += z.velocity.X * dt
	if z.manager.IsCollidingWith(z, EntityTypeZombie) {
		z.position.X = from.X
	}

	z.position.Y += z.velocity.Y * dt
	if z.manager.IsCollidingWith(z, EntityTypeZombie) {
		z.position.Y = from.Y
	}

	logging.LogEntityMovement(z.id, from.X, from.Y, z.position.X, z.position.Y)
}

// handleAttack бьёт ближайшего живого игрока, а если не вышло, ближайшую стену
func (z *Zombie) handleAttack() bool {
	if player := z.manager.ClosestAlivePlayer(z); player != nil && z.attemptAttack(player) {
		return true
	}
	if wall := z.closestWall(); wall != nil {
		return z.attemptAttack(wall)
	}
	return false
}

func (z *Zombie) closestWall() *Wall {
	var (
		closest *Wall
		best    = math.Inf(1)
	)
	center := z.CenterPosition()
	for _, e := range z.manager.NearbyEntities(z.position, ZombieWallDetectionRadius, EntityTypeWall) {
		wall, ok := e.(*Wall)
		if !ok {
			continue
		}
		if d := physics.Distance(center, wall.CenterPosition()); d < best {
			best = d
			closest = wall
		}
	}
	return closest
}

// attemptAttack наносит урон цели, если общий кулдаун атаки истёк и цель в радиусе
func (z *Zombie) attemptAttack(target Damageable) bool {
	now := z.manager.Now()
	if now.Sub(z.lastAttackTime) < ZombieAttackCooldown {
		return false
	}
	if physics.Distance(z.CenterPosition(), target.CenterPosition()) > ZombieAttackRadius {
		return false
	}
	target.Damage(ZombieAttackDamage)
	z.lastAttackTime = now
	return true
}

// Serialize возвращает снимок зомби
func (z *Zombie) Serialize() RawEntity {
	raw := z.BaseEntity.Serialize()
	raw["position"] = z.position
	raw["velocity"] = z.velocity
	raw["facing"] = z.facing
	raw["health"] = z.health
	return raw
}
