package physics

import (
	"testing"

	"github.com/annel0/survival-server/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	base := Hitbox{X: 0, Y: 0, Width: 10, Height: 10}

	tests := []struct {
		name  string
		other Hitbox
		want  bool
	}{
		{"внутри", Hitbox{X: 2, Y: 2, Width: 2, Height: 2}, true},
		{"частичное пересечение", Hitbox{X: 5, Y: 5, Width: 10, Height: 10}, true},
		{"касание правым ребром", Hitbox{X: 10, Y: 0, Width: 5, Height: 10}, false},
		{"касание нижним ребром", Hitbox{X: 0, Y: 10, Width: 10, Height: 5}, false},
		{"касание углом", Hitbox{X: 10, Y: 10, Width: 5, Height: 5}, false},
		{"раздельно", Hitbox{X: 20, Y: 20, Width: 5, Height: 5}, false},
		{"пересечение только по X", Hitbox{X: 5, Y: 11, Width: 5, Height: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(base, tt.other))
			assert.Equal(t, tt.want, Overlaps(tt.other, base), "пересечение должно быть симметричным")
		})
	}
}

func TestNewHitboxPadding(t *testing.T) {
	h := NewHitbox(vec.Vec2Float{X: 10, Y: 20}, 16, 16, 2)
	assert.Equal(t, Hitbox{X: 12, Y: 22, Width: 12, Height: 12}, h)
	assert.Equal(t, vec.Vec2Float{X: 18, Y: 28}, h.Center())
}

func TestVelocityTowards(t *testing.T) {
	v := VelocityTowards(vec.Vec2Float{X: 0, Y: 0}, vec.Vec2Float{X: 0, Y: 50})
	assert.Equal(t, vec.Vec2Float{X: 0, Y: 1}, v)

	assert.Equal(t, vec.Zero, VelocityTowards(vec.Vec2Float{X: 3, Y: 3}, vec.Vec2Float{X: 3, Y: 3}))
}
