package entity

import (
	"math/rand"
	"testing"
	"time"

	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type staticGrid struct {
	grid *physics.Grid
}

func (s staticGrid) Grid() *physics.Grid { return s.grid }

func newTestManager(t *testing.T) (*EntityManager, *fakeClock) {
	t.Helper()
	em := NewEntityManager()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	em.SetClock(clock.Now)
	em.SetRand(rand.New(rand.NewSource(42)))
	return em, clock
}

func spawnPlayer(em *EntityManager, x, y float64) *Player {
	p := NewPlayer(em)
	p.SetPosition(vec.Vec2Float{X: x, Y: y})
	em.AddEntity(p)
	return p
}

func spawnZombie(em *EntityManager, x, y float64) *Zombie {
	z := NewZombie(em)
	z.SetPosition(vec.Vec2Float{X: x, Y: y})
	em.AddEntity(z)
	return z
}

func spawnWall(em *EntityManager, x, y float64) *Wall {
	w := NewWall(em, WallMaxHealth)
	w.SetPosition(vec.Vec2Float{X: x, Y: y})
	em.AddEntity(w)
	return w
}

func slot(n int) *int { return &n }

func countType(em *EntityManager, t EntityType) int {
	n := 0
	for _, e := range em.Entities() {
		if e.Type() == t {
			n++
		}
	}
	return n
}
