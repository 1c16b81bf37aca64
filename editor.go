// Package photomask is the editor core behind the photo measurement
// canvas: it converts pixel-space pointer input into calibrated
// real-world geometry (area and linear masks with derived metrics) via
// a multi-sample reference-length calibration and a single input-routing
// state machine.
//
// An Editor owns one photo's session: framing (zoom/pan), the active
// tool, the calibration placement machine, transient drawing paths, and
// the committed masks. All state transitions run synchronously on the
// calling goroutine in response to one discrete event; the host UI must
// deliver events in order.
package photomask

import (
	"fmt"

	"github.com/quotelens/photomask/calibration"
	"github.com/quotelens/photomask/geometry"
	"github.com/quotelens/photomask/internal/router"
	"github.com/quotelens/photomask/mask"
	"github.com/quotelens/photomask/store"
	"github.com/quotelens/photomask/viewport"
)

// Editor is one photo's editing session.
type Editor struct {
	cfg       Config
	photoID   string
	session   store.Session
	persister store.Persister
	router    *router.Router
}

// New opens an editor session for a photo of imgW x imgH pixels framed
// in a containerW x containerH viewport. The session starts at fit
// scale with the hand tool active.
func New(photoID string, imgW, imgH, containerW, containerH float64, opts ...Option) (*Editor, error) {
	e := &Editor{cfg: DefaultConfig(), photoID: photoID}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if imgW <= 0 || imgH <= 0 || containerW <= 0 || containerH <= 0 {
		return nil, fmt.Errorf("photomask: image and container dimensions must be positive")
	}
	if e.session == nil {
		e.session = store.NewMemory(store.Config{
			PhotoID:            photoID,
			Space:              viewport.NewSpace(imgW, imgH, containerW, containerH),
			ContainerW:         containerW,
			ContainerH:         containerH,
			MinReferenceMeters: e.cfg.MinReferenceMeters,
			BandHeightM:        e.cfg.BandHeightM,
			Persister:          e.persister,
		})
	}
	e.router = router.New(e.session, e.cfg.BrushSizePx)
	return e, nil
}

// Session exposes the underlying store for hosts that render previews
// or persist through their own channels.
func (e *Editor) Session() store.Session { return e.session }

// --- input entry points (return value: consumed by the editor core) ---

// PointerDown routes a press at screen coordinates. A false return
// means the host should apply its native handling (hand-tool drag).
func (e *Editor) PointerDown(x, y float64) bool {
	return e.router.Handle(router.PointerDown{Pos: geometry.Vec2{X: x, Y: y}})
}

func (e *Editor) PointerMove(x, y float64) bool {
	return e.router.Handle(router.PointerMove{Pos: geometry.Vec2{X: x, Y: y}})
}

func (e *Editor) PointerUp(x, y float64) bool {
	return e.router.Handle(router.PointerUp{Pos: geometry.Vec2{X: x, Y: y}})
}

// PressEnter commits the pending calibration sample or drawing path,
// subject to their validation gates.
func (e *Editor) PressEnter() bool { return e.router.Handle(router.KeyEnter{}) }

// PressEscape cancels the in-flight calibration placement or drawing
// path, discarding transient state whole.
func (e *Editor) PressEscape() bool { return e.router.Handle(router.KeyEscape{}) }

// --- tool & calibration control surface ---

func (e *Editor) SelectTool(t store.Tool) { e.session.SetActiveTool(t) }
func (e *Editor) ActiveTool() store.Tool  { return e.session.ActiveTool() }

// StartCalibration arms the calibration placement machine; the next two
// pointer presses place the reference segment.
func (e *Editor) StartCalibration() { e.session.BeginCalibration() }

// EnterReferenceLength records the typed reference length for the
// pending sample. Validation happens at commit (PressEnter).
func (e *Editor) EnterReferenceLength(text string) { e.session.SetCalMeters(text) }

func (e *Editor) CalState() store.CalState { return e.session.CalState() }

func (e *Editor) Calibration() (calibration.Calibration, bool) { return e.session.Calibration() }

// Confidence reports the calibration's confidence tier under the
// configured cut-offs; false when the photo has no calibration.
func (e *Editor) Confidence() (calibration.Confidence, bool) {
	cal, ok := e.session.Calibration()
	if !ok {
		return calibration.Low, false
	}
	return cal.ConfidenceWith(e.cfg.Tiers()), true
}

func (e *Editor) DeleteCalibrationSample(id string) error { return e.session.DeleteCalSample(id) }

// --- viewport control (host-native drag/zoom lands here) ---

// Zoom multiplies the zoom by factor anchored at the cursor, clamped to
// the configured bounds.
func (e *Editor) Zoom(factor, cursorX, cursorY float64) {
	w, h := e.session.ContainerSize()
	next := viewport.ZoomAroundCursor(e.session.Space(), w, h,
		geometry.Vec2{X: cursorX, Y: cursorY}, factor, e.cfg.ZoomMin, e.cfg.ZoomMax)
	e.session.SetSpace(next)
}

// PanBy applies a native drag delta in screen pixels.
func (e *Editor) PanBy(dx, dy float64) {
	e.session.SetSpace(viewport.Pan(e.session.Space(), dx, dy))
}

// Resize tracks viewport size changes.
func (e *Editor) Resize(containerW, containerH float64) {
	e.session.SetContainerSize(containerW, containerH)
}

// Transform returns the current image<->screen transform for rendering.
func (e *Editor) Transform() (viewport.Transform, error) {
	w, h := e.session.ContainerSize()
	return viewport.Make(e.session.Space(), w, h)
}

func (e *Editor) Space() viewport.Space { return e.session.Space() }

// --- committed geometry ---

func (e *Editor) Masks() []mask.Mask { return e.session.Masks() }

func (e *Editor) MaskMetrics(id string) (mask.Metrics, bool) { return e.session.MaskMetrics(id) }

func (e *Editor) SelectMask(id string)    { e.session.SelectMask(id) }
func (e *Editor) SelectedMaskID() string  { return e.session.SelectedMaskID() }
func (e *Editor) DeleteMask(id string) error { return e.session.DeleteMask(id) }

func (e *Editor) AttachMaterial(id, materialID string, m mask.Material) error {
	return e.session.AttachMaterial(id, materialID, m)
}

func (e *Editor) MoveMaskPoint(id string, index int, x, y float64) error {
	return e.session.MoveMaskPoint(id, index, geometry.Vec2{X: x, Y: y})
}
