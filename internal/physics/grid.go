package physics

import (
	"container/heap"
	"math"

	"github.com/annel0/survival-server/internal/vec"
)

// TileSize размер клетки сетки проходимости в мировых единицах
const TileSize = 16.0

// Значения клеток сетки
const (
	CellWalkable = 0
	CellBlocked  = 1
)

// Grid статическая сетка проходимости карты
type Grid struct {
	cells    [][]int
	rows     int
	cols     int
	cellSize float64
}

// NewGrid создаёт сетку из строк 0/1. Строки копируются.
func NewGrid(rows [][]int, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = TileSize
	}
	cols := 0
	cells := make([][]int, len(rows))
	for i, row := range rows {
		cells[i] = append([]int(nil), row...)
		if len(row) > cols {
			cols = len(row)
		}
	}
	return &Grid{cells: cells, rows: len(rows), cols: cols, cellSize: cellSize}
}

// Rows возвращает количество строк
func (g *Grid) Rows() int { return g.rows }

// Cols возвращает количество столбцов
func (g *Grid) Cols() int { return g.cols }

// CellSize возвращает размер клетки
func (g *Grid) CellSize() float64 { return g.cellSize }

// InBounds проверяет, что клетка лежит внутри сетки
func (g *Grid) InBounds(c vec.Vec2) bool {
	return g != nil && c.Y >= 0 && c.Y < g.rows && c.X >= 0 && c.X < len(g.cells[c.Y])
}

// Walkable проверяет проходимость клетки. Клетки вне сетки непроходимы.
func (g *Grid) Walkable(c vec.Vec2) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.cells[c.Y][c.X] == CellWalkable
}

// CellAt возвращает клетку, содержащую мировую точку
func (g *Grid) CellAt(p vec.Vec2Float) vec.Vec2 {
	return vec.Vec2{
		X: int(math.Floor(p.X / g.cellSize)),
		Y: int(math.Floor(p.Y / g.cellSize)),
	}
}

// CellCenter возвращает центр клетки в мировых координатах
func (g *Grid) CellCenter(c vec.Vec2) vec.Vec2Float {
	return vec.Vec2Float{
		X: (float64(c.X) + 0.5) * g.cellSize,
		Y: (float64(c.Y) + 0.5) * g.cellSize,
	}
}

// WalkableCells возвращает все проходимые клетки в порядке строк
func (g *Grid) WalkableCells() []vec.Vec2 {
	if g == nil {
		return nil
	}
	var result []vec.Vec2
	for y, row := range g.cells {
		for x, v := range row {
			if v == CellWalkable {
				result = append(result, vec.Vec2{X: x, Y: y})
			}
		}
	}
	return result
}

var neighborOffsets = [...]struct {
	delta vec.Vec2
	cost  float64
}{
	{vec.Vec2{X: 0, Y: -1}, 1},
	{vec.Vec2{X: 1, Y: 0}, 1},
	{vec.Vec2{X: 0, Y: 1}, 1},
	{vec.Vec2{X: -1, Y: 0}, 1},
	{vec.Vec2{X: 1, Y: -1}, math.Sqrt2},
	{vec.Vec2{X: 1, Y: 1}, math.Sqrt2},
	{vec.Vec2{X: -1, Y: 1}, math.Sqrt2},
	{vec.Vec2{X: -1, Y: -1}, math.Sqrt2},
}

// PathTowards возвращает следующую промежуточную точку на пути от start к goal.
//
// Вне авторской сетки мир открыт, поэтому если одна из точек лежит за её пределами
// (или сетки нет), возвращается сама цель. Если обе точки в одной клетке, тоже цель.
// Иначе выполняется A* по 8 соседям; стартовая и целевая клетки считаются проходимыми.
// ok=false, если путь не найден.
func PathTowards(start, goal vec.Vec2Float, grid *Grid) (vec.Vec2Float, bool) {
	if grid == nil || grid.rows == 0 {
		return goal, true
	}

	startCell := grid.CellAt(start)
	goalCell := grid.CellAt(goal)
	if !grid.InBounds(startCell) || !grid.InBounds(goalCell) {
		return goal, true
	}
	if startCell.Equals(goalCell) {
		return goal, true
	}

	path, found := grid.astar(startCell, goalCell)
	if !found || len(path) < 2 {
		return vec.Vec2Float{}, false
	}

	next := path[1]
	if next.Equals(goalCell) {
		return goal, true
	}
	return grid.CellCenter(next), true
}

func octile(a, b vec.Vec2) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

type pathNode struct {
	cell   vec.Vec2
	g      float64
	f      float64
	seq    int
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

// Less упорядочивает по f, при равенстве по порядку вставки, чтобы путь был детерминирован
func (pq pathQueue) Less(i, j int) bool {
	if pq[i].f == pq[j].f {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].f < pq[j].f
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	item := x.(*pathNode)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func (g *Grid) astar(start, goal vec.Vec2) ([]vec.Vec2, bool) {
	open := &pathQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &pathNode{cell: start, f: octile(start, goal), seq: seq})

	gScore := map[vec.Vec2]float64{start: 0}
	closed := make(map[vec.Vec2]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.cell]; seen {
			continue
		}
		closed[current.cell] = struct{}{}
		if current.cell.Equals(goal) {
			return reconstructPath(current), true
		}

		for _, n := range neighborOffsets {
			next := current.cell.Add(n.delta)
			if !g.InBounds(next) {
				continue
			}
			if !next.Equals(goal) && !g.Walkable(next) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			tentative := current.g + n.cost
			if prev, ok := gScore[next]; ok && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			seq++
			heap.Push(open, &pathNode{
				cell:   next,
				g:      tentative,
				f:      tentative + octile(next, goal),
				seq:    seq,
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstructPath(end *pathNode) []vec.Vec2 {
	var path []vec.Vec2
	for node := end; node != nil; node = node.parent {
		path = append(path, node.cell)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
