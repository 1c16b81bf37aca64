// Package viewport models how a photo is framed on screen and the
// transform between image-pixel and screen-pixel coordinates.
//
// A Space is the mutable framing state of one open photo (fit scale,
// zoom, pan). A Transform is derived from a Space plus the current
// container size and is never persisted; it must be rebuilt whenever
// either changes.
package viewport

import (
	"errors"

	"github.com/quotelens/photomask/geometry"
)

// Default zoom clamp bounds, overridable by the host.
const (
	DefaultMinZoom = 0.2
	DefaultMaxZoom = 6.0
)

var ErrDegenerateScale = errors.New("viewport: effective scale must be positive")

// Space describes how one photo is currently framed. Zoom and pan may
// optionally be persisted as a view preference; nothing else is durable.
type Space struct {
	ImgW     float64 `json:"imgW"`
	ImgH     float64 `json:"imgH"`
	FitScale float64 `json:"fitScale"`
	Zoom     float64 `json:"zoom"`
	PanX     float64 `json:"panX"`
	PanY     float64 `json:"panY"`
}

// NewSpace frames an image in a container at fit scale, zoom 1, no pan.
func NewSpace(imgW, imgH, containerW, containerH float64) Space {
	return Space{
		ImgW:     imgW,
		ImgH:     imgH,
		FitScale: CalculateFitScale(imgW, imgH, containerW, containerH),
		Zoom:     1,
	}
}

// Transform converts between image space and screen space for one frame.
// S is the effective scale (fitScale x zoom); OriginX/OriginY is the
// screen position of the image's top-left corner.
type Transform struct {
	S       float64
	OriginX float64
	OriginY float64
}

// Make derives the frame transform for space rendered in a
// containerW x containerH viewport. The scaled image is centered in the
// container and the user pan applied on top, so at pan (0,0) the image
// is centered regardless of aspect ratio.
//
// A non-positive effective scale makes ScreenToImg undefined and is
// rejected rather than propagated.
func Make(space Space, containerW, containerH float64) (Transform, error) {
	s := space.FitScale * space.Zoom
	if s <= 0 {
		return Transform{}, ErrDegenerateScale
	}
	return Transform{
		S:       s,
		OriginX: space.PanX + (containerW-space.ImgW*s)/2,
		OriginY: space.PanY + (containerH-space.ImgH*s)/2,
	}, nil
}

// ImgToScreen maps an image-pixel point to screen pixels.
func (t Transform) ImgToScreen(p geometry.Vec2) geometry.Vec2 {
	return geometry.Vec2{X: t.OriginX + p.X*t.S, Y: t.OriginY + p.Y*t.S}
}

// ScreenToImg maps a screen-pixel point to image pixels. It is the exact
// algebraic inverse of ImgToScreen for the same Transform.
func (t Transform) ScreenToImg(p geometry.Vec2) geometry.Vec2 {
	return geometry.Vec2{X: (p.X - t.OriginX) / t.S, Y: (p.Y - t.OriginY) / t.S}
}

// CalculateFitScale returns the "contain" scale: the largest scale at
// which the whole image is visible in the container with no cropping.
func CalculateFitScale(imgW, imgH, containerW, containerH float64) float64 {
	if imgW <= 0 || imgH <= 0 || containerW <= 0 || containerH <= 0 {
		return 1
	}
	if imgW/imgH > containerW/containerH {
		return containerW / imgW
	}
	return containerH / imgH
}

// ClampZoom clamps zoom into [min, max]. Callers must route every zoom
// mutation through this before applying it to a Space.
func ClampZoom(zoom, min, max float64) float64 {
	if zoom < min {
		return min
	}
	if zoom > max {
		return max
	}
	return zoom
}

// ZoomAroundCursor multiplies the zoom by factor, clamped into
// [minZoom, maxZoom], keeping the image point under the cursor fixed on
// screen: the cursor is resolved to image space through the old
// transform, the zoom is applied, and the pan shifted by the screen
// delta of that same image point under the new transform.
//
// If the current transform is degenerate the space is returned unchanged.
func ZoomAroundCursor(space Space, containerW, containerH float64, cursor geometry.Vec2, factor, minZoom, maxZoom float64) Space {
	before, err := Make(space, containerW, containerH)
	if err != nil {
		return space
	}
	anchor := before.ScreenToImg(cursor)

	next := space
	next.Zoom = ClampZoom(space.Zoom*factor, minZoom, maxZoom)
	after, err := Make(next, containerW, containerH)
	if err != nil {
		return space
	}
	moved := after.ImgToScreen(anchor)
	next.PanX += cursor.X - moved.X
	next.PanY += cursor.Y - moved.Y
	return next
}

// Pan offsets the space by a screen-pixel drag delta. The hand tool
// defers to the host's native drag handling, which lands here.
func Pan(space Space, dx, dy float64) Space {
	space.PanX += dx
	space.PanY += dy
	return space
}
