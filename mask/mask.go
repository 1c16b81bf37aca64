// Package mask defines the persisted geometric annotations drawn over a
// photo: area polygons, linear runs, and waterline bands, optionally
// bound to a material with per-mask placement settings.
//
// Masks live in image-pixel space. Real-world metrics (area, perimeter)
// are derived from geometry plus the photo's calibration and are never
// independently authoritative; see Derive.
package mask

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quotelens/photomask/geometry"
)

// Type tags the mask union.
type Type string

const (
	TypeArea          Type = "area"
	TypeLinear        Type = "linear"
	TypeWaterlineBand Type = "waterline_band"
)

var (
	ErrUnknownType  = errors.New("mask: unknown mask type")
	ErrTooFewPoints = errors.New("mask: not enough points for a valid mask")
)

// MinPoints is the smallest vertex count at which a mask of the given
// type is geometrically valid: a polygon needs three vertices for
// nonzero area, a polyline needs two for nonzero length.
func MinPoints(t Type) int {
	if t == TypeArea {
		return 3
	}
	return 2
}

// Material holds per-mask placement settings for an attached material.
type Material struct {
	Scale       float64 `json:"scale"`
	RotationDeg float64 `json:"rotationDeg"`
	OffsetX     float64 `json:"offsetX"`
	OffsetY     float64 `json:"offsetY"`
}

// Meta carries the fields common to every mask variant.
type Meta struct {
	ID         string    `json:"id"`
	PhotoID    string    `json:"photoId"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	MaterialID string    `json:"materialId,omitempty"`
	Material   *Material `json:"materialMeta,omitempty"`
}

// Mask is the closed union over the three variants. Consumers switch on
// the concrete type (*Area, *Linear, *WaterlineBand); the unexported
// method keeps the union sealed.
type Mask interface {
	Type() Type
	Common() *Meta
	// Points returns the editable vertex list: the outer ring for an
	// area mask, the line for the others.
	Points() []geometry.Vec2
	// WithPoints returns a copy of the mask with the vertex list
	// replaced. Geometry edits go through here so holes and band
	// settings survive untouched.
	WithPoints(pts []geometry.Vec2) Mask

	isMask()
}

// Area is a closed polygon with optional holes.
type Area struct {
	Meta
	Ring  []geometry.Vec2
	Holes [][]geometry.Vec2
}

// Linear is an open polyline run.
type Linear struct {
	Meta
	Line []geometry.Vec2
}

// WaterlineBand is a polyline extruded to a constant real-world height.
type WaterlineBand struct {
	Meta
	Line        []geometry.Vec2
	BandHeightM float64
}

func (*Area) isMask()          {}
func (*Linear) isMask()        {}
func (*WaterlineBand) isMask() {}

func (m *Area) Type() Type          { return TypeArea }
func (m *Linear) Type() Type        { return TypeLinear }
func (m *WaterlineBand) Type() Type { return TypeWaterlineBand }

func (m *Area) Common() *Meta          { return &m.Meta }
func (m *Linear) Common() *Meta        { return &m.Meta }
func (m *WaterlineBand) Common() *Meta { return &m.Meta }

func (m *Area) Points() []geometry.Vec2          { return m.Ring }
func (m *Linear) Points() []geometry.Vec2        { return m.Line }
func (m *WaterlineBand) Points() []geometry.Vec2 { return m.Line }

func (m *Area) WithPoints(pts []geometry.Vec2) Mask {
	c := *m
	c.Ring = pts
	return &c
}

func (m *Linear) WithPoints(pts []geometry.Vec2) Mask {
	c := *m
	c.Line = pts
	return &c
}

func (m *WaterlineBand) WithPoints(pts []geometry.Vec2) Mask {
	c := *m
	c.Line = pts
	return &c
}

// New builds a committed mask of the given type from a transient path.
// The point minimum is enforced here so an invalid mask can never be
// constructed. bandHeightM is only consulted for waterline bands.
func New(t Type, photoID string, pts []geometry.Vec2, bandHeightM float64, now time.Time) (Mask, error) {
	if len(pts) < MinPoints(t) {
		return nil, fmt.Errorf("%w: %s needs %d points, got %d", ErrTooFewPoints, t, MinPoints(t), len(pts))
	}
	meta := Meta{
		ID:        uuid.NewString(),
		PhotoID:   photoID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch t {
	case TypeArea:
		return &Area{Meta: meta, Ring: pts}, nil
	case TypeLinear:
		return &Linear{Meta: meta, Line: pts}, nil
	case TypeWaterlineBand:
		return &WaterlineBand{Meta: meta, Line: pts, BandHeightM: bandHeightM}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// Valid reports whether the mask still meets its vertex minimum. Erasure
// checks this before persisting: a mask that fails must be deleted, not
// kept in an invalid state.
func Valid(m Mask) bool {
	return len(m.Points()) >= MinPoints(m.Type())
}
