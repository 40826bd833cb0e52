package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/survival-server/internal/config"
	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
	"github.com/annel0/survival-server/internal/world/entity"
)

func spawnerConfig() config.SpawnerConfig {
	return config.SpawnerConfig{
		Enabled:         true,
		IntervalSeconds: 1,
		Batch:           3,
		MaxZombies:      4,
		Threshold:       0,
		NoiseScale:      0.3,
		Seed:            7,
	}
}

func TestSpawner_WaitsForInterval(t *testing.T) {
	em := entity.NewEntityManager()
	grid := physics.NewGrid(checkerboard(4, 4), physics.TileSize)
	s := NewSpawner(spawnerConfig())

	assert.Empty(t, s.Update(0.5, em, grid))
	assert.Len(t, s.Update(0.5, em, grid), 3, "Волна выходит по истечении интервала")
	assert.Empty(t, s.Update(0.1, em, grid), "Таймер сброшен")
}

func TestSpawner_RespectsMaxZombies(t *testing.T) {
	em := entity.NewEntityManager()
	em.SetRand(rand.New(rand.NewSource(1)))
	grid := physics.NewGrid(checkerboard(4, 4), physics.TileSize)
	s := NewSpawner(spawnerConfig())

	require.Len(t, s.Update(1, em, grid), 3)
	assert.Len(t, s.Update(1, em, grid), 1, "Добавляется только до лимита")
	assert.Empty(t, s.Update(1, em, grid))

	z := em.Entities()[0]
	em.MarkEntityForRemoval(z)
	assert.Len(t, s.Update(1, em, grid), 1, "Помеченные зомби не считаются")
}

func TestSpawner_PlacesOnWalkableCells(t *testing.T) {
	em := entity.NewEntityManager()
	grid := physics.NewGrid(checkerboard(5, 5), physics.TileSize)
	cfg := spawnerConfig()
	cfg.MaxZombies = 20
	cfg.Batch = 20
	s := NewSpawner(cfg)

	for _, z := range s.Update(1, em, grid) {
		cell := grid.CellAt(z.CenterPosition())
		assert.True(t, grid.Walkable(cell), "Зомби %s стоит на проходимой клетке", z.ID())
		assert.Equal(t, grid.CellCenter(cell), z.CenterPosition())
	}
}

func TestSpawner_DisabledOrNoGrid(t *testing.T) {
	em := entity.NewEntityManager()
	cfg := spawnerConfig()
	cfg.Enabled = false
	grid := physics.NewGrid(checkerboard(4, 4), physics.TileSize)

	assert.Empty(t, NewSpawner(cfg).Update(5, em, grid))
	assert.Empty(t, NewSpawner(spawnerConfig()).Update(5, em, nil))
}

func TestSpawner_CandidateCellsFollowThreshold(t *testing.T) {
	grid := physics.NewGrid([][]int{{0, 0, 0}, {0, 1, 0}}, physics.TileSize)

	all := NewSpawner(spawnerConfig()).CandidateCells(grid)
	assert.Len(t, all, 5, "Нулевой порог пропускает все проходимые клетки")
	assert.NotContains(t, all, vec.Vec2{X: 1, Y: 1})

	cfg := spawnerConfig()
	cfg.Threshold = 1.01
	assert.Empty(t, NewSpawner(cfg).CandidateCells(grid))
}
