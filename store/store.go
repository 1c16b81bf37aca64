// Package store holds the editor session state the input router writes
// into: tool selection, the calibration sub-machine state, the transient
// drawing path, and the committed masks and calibration for one photo.
//
// Memory is the canonical in-process implementation. All durable writes
// fan out through the Persister interface; SQLite is the bundled
// persister. The router owns the decision of *when* each mutation is
// legal; the store keeps each mutation internally consistent and
// tolerates out-of-order calls as no-ops.
package store

import (
	"errors"

	"github.com/quotelens/photomask/calibration"
	"github.com/quotelens/photomask/geometry"
	"github.com/quotelens/photomask/mask"
	"github.com/quotelens/photomask/viewport"
)

// Tool selects which controller consumes pointer input when no
// calibration placement is active.
type Tool string

const (
	ToolArea      Tool = "area"
	ToolLinear    Tool = "linear"
	ToolWaterline Tool = "waterline"
	ToolEraser    Tool = "eraser"
	ToolHand      Tool = "hand"
)

// Drawing reports whether the tool collects path points.
func (t Tool) Drawing() bool {
	return t == ToolArea || t == ToolLinear || t == ToolWaterline
}

// MaskType maps a drawing tool to the mask variant it commits.
func (t Tool) MaskType() (mask.Type, bool) {
	switch t {
	case ToolArea:
		return mask.TypeArea, true
	case ToolLinear:
		return mask.TypeLinear, true
	case ToolWaterline:
		return mask.TypeWaterlineBand, true
	default:
		return "", false
	}
}

// CalState is the calibration sub-machine state. Ready means at least
// one sample was committed this session; it is informational and does
// not consume input (only the placing and lengthEntry states pre-empt
// the drawing tools).
type CalState string

const (
	CalIdle        CalState = "idle"
	CalPlacingA    CalState = "placingA"
	CalPlacingB    CalState = "placingB"
	CalLengthEntry CalState = "lengthEntry"
	CalReady       CalState = "ready"
)

// Consuming reports whether the calibration machine claims pointer and
// key input in this state, pre-empting the nominally active tool.
func (s CalState) Consuming() bool {
	return s == CalPlacingA || s == CalPlacingB || s == CalLengthEntry
}

// CalTemp is the scratch data of one calibration placement cycle,
// discarded whole on commit or cancel.
type CalTemp struct {
	A       *geometry.Vec2
	B       *geometry.Vec2
	Preview *geometry.Vec2
	Meters  string
}

// Transient is an in-progress, uncommitted drawing path in image space.
// Preview tracks the cursor for live feedback and never becomes a
// committed point.
type Transient struct {
	Tool    Tool
	Points  []geometry.Vec2
	Preview *geometry.Vec2
}

var (
	ErrNoTransientPath = errors.New("store: no transient path")
	ErrWrongCalState   = errors.New("store: operation not valid in current calibration state")
	ErrBadMeters       = errors.New("store: reference length does not parse")
	ErrMaskNotFound    = errors.New("store: mask not found")
	ErrBadPointIndex   = errors.New("store: point index out of range")
)

// Session is the MaskGeometryStore contract the input router drives.
// Aside from this interface the router is side-effect free; every
// durable write happens through a Session implementation.
type Session interface {
	// Tool and framing state.
	ActiveTool() Tool
	SetActiveTool(t Tool)
	Space() viewport.Space
	SetSpace(s viewport.Space)
	ContainerSize() (w, h float64)
	SetContainerSize(w, h float64)

	// Transient drawing path lifecycle.
	Transient() (Transient, bool)
	StartPath(t Tool, p geometry.Vec2)
	AppendPoint(p geometry.Vec2)
	UpdatePathPreview(p geometry.Vec2)
	CommitPath() (mask.Mask, error)
	CancelPath()

	// Calibration placement lifecycle.
	CalState() CalState
	CalTemp() CalTemp
	BeginCalibration()
	PlaceCalPoint(p geometry.Vec2)
	UpdateCalPreview(p geometry.Vec2)
	SetCalMeters(text string)
	CommitCalSample() (calibration.Sample, error)
	CancelCalibration()
	DeleteCalSample(id string) error
	Calibration() (calibration.Calibration, bool)

	// Committed mask access and edits.
	Masks() []mask.Mask
	MaskMetrics(id string) (mask.Metrics, bool)
	SelectMask(id string)
	SelectedMaskID() string
	EraseFromMask(id string, center geometry.Vec2, radius float64) (deleted bool, err error)
	MoveMaskPoint(id string, index int, p geometry.Vec2) error
	AttachMaterial(id, materialID string, m mask.Material) error
	DeleteMask(id string) error
}

// Persister receives committed state for durable storage. A nil
// persister keeps the session purely in memory.
type Persister interface {
	SaveMask(photoID string, rec mask.Record) error
	DeleteMask(photoID, maskID string) error
	SaveCalibration(photoID string, cal calibration.Calibration) error
	DeleteCalibration(photoID string) error
}
