package physics

import (
	"github.com/annel0/survival-server/internal/vec"
)

// Hitbox представляет прямоугольник, выровненный по осям, в мировых координатах.
// Хранится только как производная от позиции сущности.
type Hitbox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewHitbox строит хитбокс размером width x height от позиции с отступом padding со всех сторон
func NewHitbox(position vec.Vec2Float, width, height, padding float64) Hitbox {
	return Hitbox{
		X:      position.X + padding,
		Y:      position.Y + padding,
		Width:  width - padding*2,
		Height: height - padding*2,
	}
}

// Center возвращает центр хитбокса
func (h Hitbox) Center() vec.Vec2Float {
	return vec.Vec2Float{X: h.X + h.Width/2, Y: h.Y + h.Height/2}
}

// Overlaps проверяет пересечение двух хитбоксов.
// Касание рёбрами или углами столкновением не считается.
func Overlaps(a, b Hitbox) bool {
	return a.X < b.X+b.Width &&
		a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height &&
		a.Y+a.Height > b.Y
}

// Distance возвращает евклидово расстояние между точками
func Distance(a, b vec.Vec2Float) float64 {
	return a.DistanceTo(b)
}

// NormalizeVector возвращает единичный вектор того же направления
func NormalizeVector(v vec.Vec2Float) vec.Vec2Float {
	return v.Normalized()
}

// VelocityTowards возвращает единичный вектор направления из from в to.
// Совпадающие точки дают нулевой вектор.
func VelocityTowards(from, to vec.Vec2Float) vec.Vec2Float {
	return to.Sub(from).Normalized()
}
