package vec

import "math"

// Vec2Float представляет 2D координаты с плавающей точкой (позиция или скорость в мире)
type Vec2Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero нулевой вектор
var Zero = Vec2Float{}

// ToVec2 преобразует в целочисленные координаты
func (v Vec2Float) ToVec2() Vec2 {
	return Vec2{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y))}
}

// FromVec2 создает Vec2Float из Vec2
func FromVec2(v Vec2) Vec2Float {
	return Vec2Float{X: float64(v.X), Y: float64(v.Y)}
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2Float) Sub(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2Float) Mul(scalar float64) Vec2Float {
	return Vec2Float{X: v.X * scalar, Y: v.Y * scalar}
}

// Normalized возвращает нормализованный вектор. Нулевой вектор остаётся нулевым.
func (v Vec2Float) Normalized() Vec2Float {
	length := v.Length()
	if length == 0 {
		return Vec2Float{X: 0, Y: 0}
	}
	return Vec2Float{X: v.X / length, Y: v.Y / length}
}

// Length возвращает длину вектора
func (v Vec2Float) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// DistanceTo вычисляет евклидово расстояние до другой точки
func (v Vec2Float) DistanceTo(other Vec2Float) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Rotate поворачивает вектор на угол в градусах (по часовой стрелке в экранных координатах)
func (v Vec2Float) Rotate(degrees float64) Vec2Float {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec2Float{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// IsZero проверяет, что оба компонента равны нулю
func (v Vec2Float) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
