package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/survival-server/internal/vec"
)

func newBulletAt(em *EntityManager, x, y float64, dir vec.Vec2Float) *Bullet {
	b := NewBullet(em, dir)
	b.SetPosition(vec.Vec2Float{X: x, Y: y})
	em.AddEntity(b)
	return b
}

func TestBullet_HitsLivingZombie(t *testing.T) {
	em, _ := newTestManager(t)
	zombie := spawnZombie(em, 10, 0)
	bullet := newBulletAt(em, 0, 4, DirectionRight.Vector())

	require.NoError(t, bullet.Update(0.1))

	assert.Equal(t, ZombieMaxHealth-BulletDamage, zombie.Health())
	assert.True(t, em.IsMarkedForRemoval(bullet))

	require.NoError(t, bullet.Update(0.1))
	assert.Equal(t, ZombieMaxHealth-BulletDamage, zombie.Health(), "Помеченная пуля больше не попадает")
}

func TestBullet_IgnoresDeadZombie(t *testing.T) {
	em, _ := newTestManager(t)
	zombie := spawnZombie(em, 10, 0)
	zombie.Damage(ZombieMaxHealth)
	bullet := newBulletAt(em, 0, 4, DirectionRight.Vector())

	require.NoError(t, bullet.Update(0.1))
	assert.False(t, em.IsMarkedForRemoval(bullet))
}

func TestBullet_ExpiresAfterMaxTravel(t *testing.T) {
	em, _ := newTestManager(t)
	bullet := newBulletAt(em, 0, 0, DirectionDown.Vector())

	require.NoError(t, bullet.Update(0.5))
	assert.False(t, em.IsMarkedForRemoval(bullet))
	assert.InDelta(t, 50, bullet.Traveled(), 1e-9)

	require.NoError(t, bullet.Update(0.5))
	assert.True(t, em.IsMarkedForRemoval(bullet))
	assert.InDelta(t, 100, bullet.Position().Y, 1e-9)
}

func TestSound_RemovedOnFirstUpdate(t *testing.T) {
	em, _ := newTestManager(t)
	sound := NewSound(em, SoundPistol)
	em.AddEntity(sound)

	assert.False(t, em.IsMarkedForRemoval(sound))
	require.NoError(t, sound.Update(0.016))
	assert.True(t, em.IsMarkedForRemoval(sound))

	raw := sound.Serialize()
	assert.Equal(t, SoundPistol, raw["soundType"])
}
