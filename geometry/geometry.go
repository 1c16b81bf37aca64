// Package geometry provides the 2D primitives shared by the editor core:
// points, open polylines and closed polygons, and the pixel-space
// measurements (length, shoelace area) that calibration later converts
// into real-world units.
//
// Every function in this package is coordinate-space agnostic; callers
// declare whether a Vec2 is in image-pixel or screen-pixel space and
// must convert through viewport.Transform before mixing the two.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2     { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2     { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dist returns the Euclidean distance to o.
func (v Vec2) Dist(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return math.Hypot(dx, dy)
}

// PathLength returns the length of the open polyline through pts, in the
// same units as the coordinates. Fewer than two points have zero length.
func PathLength(pts []Vec2) float64 {
	if len(pts) < 2 {
		return 0
	}
	segs := make([]float64, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		segs = append(segs, pts[i-1].Dist(pts[i]))
	}
	return floats.Sum(segs)
}

// RingPerimeter returns the perimeter of the closed ring through pts,
// including the closing segment from the last point back to the first.
func RingPerimeter(pts []Vec2) float64 {
	if len(pts) < 3 {
		return 0
	}
	return PathLength(pts) + pts[len(pts)-1].Dist(pts[0])
}

// PolygonArea returns the absolute area of the simple polygon whose
// vertices are pts, via the shoelace formula. Collinear or degenerate
// input yields zero; the closing edge is implicit.
func PolygonArea(pts []Vec2) float64 {
	if len(pts) < 3 {
		return 0
	}
	terms := make([]float64, 0, len(pts))
	for i := range pts {
		j := (i + 1) % len(pts)
		terms = append(terms, pts[i].X*pts[j].Y-pts[j].X*pts[i].Y)
	}
	return math.Abs(floats.Sum(terms)) / 2
}

// PolygonAreaWithHoles returns the ring area minus the area of each hole.
// Holes are assumed to lie inside the outer ring; the result is floored
// at zero so inconsistent hole data can never produce a negative area.
func PolygonAreaWithHoles(ring []Vec2, holes [][]Vec2) float64 {
	a := PolygonArea(ring)
	for _, h := range holes {
		a -= PolygonArea(h)
	}
	return math.Max(a, 0)
}

// EraseVertices returns pts with every vertex within radius of center
// removed. The relative order of surviving vertices is preserved.
func EraseVertices(pts []Vec2, center Vec2, radius float64) []Vec2 {
	if radius <= 0 {
		return pts
	}
	kept := make([]Vec2, 0, len(pts))
	for _, p := range pts {
		if p.Dist(center) > radius {
			kept = append(kept, p)
		}
	}
	return kept
}
