package world

import (
	"github.com/annel0/survival-server/internal/vec"
	"github.com/annel0/survival-server/internal/world/entity"
)

// TestingMapID встроенная карта для разработки
const TestingMapID = "testing"

func builtinMaps() []MapDefinition {
	return []MapDefinition{testingMap()}
}

func testingMap() MapDefinition {
	pos := func(x, y float64) vec.Vec2Float { return vec.Vec2Float{X: x, Y: y} }
	return MapDefinition{
		ID:    TestingMapID,
		Spawn: pos(0, 0),
		Entities: []StaticEntity{
			{Type: entity.EntityTypeTree, Position: pos(40, 40)},
			{Type: entity.EntityTypeTree, Position: pos(60, 60)},
			{Type: entity.EntityTypeTree, Position: pos(80, 60)},
			{Type: entity.EntityTypeTree, Position: pos(60, 100)},
			{Type: entity.EntityTypeWall, Position: pos(100, 100)},
			{Type: entity.EntityTypeWall, Position: pos(40, 50)},
		},
		Grid: checkerboard(7, 10),
	}
}

// checkerboard строит сетку, где непроходимые клетки чередуются в шахматном порядке
func checkerboard(rows, cols int) [][]int {
	grid := make([][]int, rows)
	for y := range grid {
		grid[y] = make([]int, cols)
		for x := range grid[y] {
			if (x+y)%2 == 0 {
				grid[y][x] = 1
			}
		}
	}
	return grid
}
