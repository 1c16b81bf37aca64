package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDist(t *testing.T) {
	assert.Equal(t, 5.0, Vec2{0, 0}.Dist(Vec2{3, 4}))
	assert.Equal(t, 0.0, Vec2{7, -2}.Dist(Vec2{7, -2}))
}

func TestPathLength(t *testing.T) {
	test := []struct {
		name string
		pts  []Vec2
		want float64
	}{
		{"empty", nil, 0},
		{"single point", []Vec2{{1, 1}}, 0},
		{"straight segment", []Vec2{{0, 0}, {10, 0}}, 10},
		{"L shape", []Vec2{{0, 0}, {3, 0}, {3, 4}}, 7},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PathLength(tt.pts), 1e-9)
		})
	}
}

func TestPolygonArea(t *testing.T) {
	test := []struct {
		name string
		pts  []Vec2
		want float64
	}{
		{"degenerate two points", []Vec2{{0, 0}, {1, 1}}, 0},
		{"collinear", []Vec2{{0, 0}, {1, 1}, {2, 2}}, 0},
		{"unit triangle", []Vec2{{0, 0}, {1, 0}, {0, 1}}, 0.5},
		{"rect 200x100", []Vec2{{0, 0}, {200, 0}, {200, 100}, {0, 100}}, 20000},
		{"rect reversed winding", []Vec2{{0, 100}, {200, 100}, {200, 0}, {0, 0}}, 20000},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PolygonArea(tt.pts), 1e-9)
		})
	}
}

func TestPolygonAreaWithHoles(t *testing.T) {
	ring := []Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	hole := []Vec2{{2, 2}, {4, 2}, {4, 4}, {2, 4}}
	assert.InDelta(t, 96, PolygonAreaWithHoles(ring, [][]Vec2{hole}), 1e-9)

	// Inconsistent hole data must floor at zero, never go negative.
	big := []Vec2{{-5, -5}, {15, -5}, {15, 15}, {-5, 15}}
	assert.Equal(t, 0.0, PolygonAreaWithHoles(ring, [][]Vec2{big}))
}

func TestRingPerimeter(t *testing.T) {
	assert.InDelta(t, 600, RingPerimeter([]Vec2{{0, 0}, {200, 0}, {200, 100}, {0, 100}}), 1e-9)
	assert.Equal(t, 0.0, RingPerimeter([]Vec2{{0, 0}, {1, 0}}))
}

func TestEraseVertices(t *testing.T) {
	pts := []Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	t.Run("removes within radius", func(t *testing.T) {
		got := EraseVertices(pts, Vec2{0, 0}, 1)
		assert.Equal(t, []Vec2{{10, 0}, {10, 10}, {0, 10}}, got)
	})
	t.Run("order preserved", func(t *testing.T) {
		got := EraseVertices(pts, Vec2{10, 5}, 6)
		assert.Equal(t, []Vec2{{0, 0}, {0, 10}}, got)
	})
	t.Run("zero radius is a no-op", func(t *testing.T) {
		assert.Equal(t, pts, EraseVertices(pts, Vec2{0, 0}, 0))
	})
}
