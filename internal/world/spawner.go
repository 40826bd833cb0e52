package world

import (
	"github.com/annel0/survival-server/internal/config"
	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/util"
	"github.com/annel0/survival-server/internal/vec"
	"github.com/annel0/survival-server/internal/world/entity"
)

// Spawner периодически выпускает зомби на проходимые клетки карты,
// где значение шума Перлина выше порога. Каждая волна сдвигает выборку шума.
type Spawner struct {
	cfg     config.SpawnerConfig
	noise   *util.Noise
	elapsed float64
	wave    int
}

// NewSpawner создаёт спавнер
func NewSpawner(cfg config.SpawnerConfig) *Spawner {
	return &Spawner{
		cfg:   cfg,
		noise: util.NewNoise(cfg.Seed, cfg.NoiseScale),
	}
}

// Update копит время и по истечении интервала добавляет волну зомби в реестр.
// Возвращает созданных зомби.
func (s *Spawner) Update(dt float64, em *entity.EntityManager, grid *physics.Grid) []*entity.Zombie {
	if !s.cfg.Enabled || grid == nil {
		return nil
	}
	s.elapsed += dt
	if s.elapsed < s.cfg.IntervalSeconds {
		return nil
	}
	s.elapsed = 0

	room := s.cfg.MaxZombies - countZombies(em)
	if room <= 0 {
		return nil
	}
	n := s.cfg.Batch
	if n > room {
		n = room
	}

	cells := s.CandidateCells(grid)
	s.wave++
	if len(cells) == 0 {
		return nil
	}

	rng := em.Rand()
	half := vec.Vec2Float{X: entity.ZombieWidth / 2, Y: entity.ZombieHeight / 2}
	spawned := make([]*entity.Zombie, 0, n)
	for i := 0; i < n; i++ {
		cell := cells[rng.Intn(len(cells))]
		z := entity.NewZombie(em)
		z.SetPosition(grid.CellCenter(cell).Sub(half))
		em.AddEntity(z)
		spawned = append(spawned, z)
	}
	logging.Debug("Spawner: волна %d, %d зомби", s.wave, len(spawned))
	return spawned
}

// CandidateCells возвращает проходимые клетки, где шум текущей волны выше порога
func (s *Spawner) CandidateCells(grid *physics.Grid) []vec.Vec2 {
	var cells []vec.Vec2
	for _, c := range grid.WalkableCells() {
		if s.noise.Value2D(float64(c.X)+float64(s.wave)*7.31, float64(c.Y)) >= s.cfg.Threshold {
			cells = append(cells, c)
		}
	}
	return cells
}

func countZombies(em *entity.EntityManager) int {
	n := 0
	for _, e := range em.Entities() {
		if e.Type() == entity.EntityTypeZombie && !em.IsMarkedForRemoval(e) {
			n++
		}
	}
	return n
}
