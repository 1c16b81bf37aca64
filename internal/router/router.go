// Package router is the single authoritative dispatcher for editor
// input. For every pointer or key event it decides which sub-machine
// consumes it — the calibration placement machine or the active tool —
// and drives the transient-path and calibration lifecycles on the
// session store.
//
// Mutual exclusion is structural: dispatch is one table lookup keyed on
// the calibration state first and the active tool second, so exactly
// one consumer sees any event. While a calibration placement is in
// flight (placingA, placingB, lengthEntry) the calibration machine
// claims all input regardless of the nominally selected tool.
//
// The hand tool never participates: its events are reported unhandled
// so the host viewport's native dragging takes over. Hosts must not
// additionally feed hand-tool drags through the router's pan path —
// there is none, which is what rules out double-panning.
package router

import (
	"github.com/quotelens/photomask/geometry"
	"github.com/quotelens/photomask/store"
	"github.com/quotelens/photomask/viewport"
)

// Event is a discrete input delivered by the host UI runtime. Events
// must be handed over in delivery order; the router never reorders or
// batches them.
type Event interface{ isEvent() }

// Pointer positions are in screen space; the router resolves them to
// image space through the current transform.
type (
	PointerDown struct{ Pos geometry.Vec2 }
	PointerMove struct{ Pos geometry.Vec2 }
	PointerUp   struct{ Pos geometry.Vec2 }
	KeyEscape   struct{}
	KeyEnter    struct{}
)

func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (KeyEscape) isEvent()   {}
func (KeyEnter) isEvent()    {}

type evKind int

const (
	evDown evKind = iota
	evMove
	evUp
	evEscape
	evEnter
)

// Router dispatches events onto a session store. It keeps only ephemeral
// input state of its own (whether the pointer is held for eraser drags);
// everything durable lives in the store.
type Router struct {
	store   store.Session
	brushPx float64

	pointerHeld bool
}

// New builds a router over the injected session store. brushPx is the
// eraser brush radius in screen pixels.
func New(s store.Session, brushPx float64) *Router {
	return &Router{store: s, brushPx: brushPx}
}

// action is one cell of the dispatch tables: it runs against the store
// with the event's image-space position and reports whether the event
// was consumed.
type action func(r *Router, img geometry.Vec2) bool

// calTable is the calibration sub-machine: state x event -> action.
// States absent from the table (idle, ready) do not consume input;
// ready's one Escape transition is handled in Handle because it must
// yield to an in-flight drawing path. Events absent from a state's row
// are claimed but ignored, so a mid-placement stray click can never
// leak into a drawing tool.
var calTable = map[store.CalState]map[evKind]action{
	store.CalPlacingA: {
		evDown:   (*Router).placeCalPoint,
		evEscape: (*Router).cancelCalibration,
	},
	store.CalPlacingB: {
		evDown:   (*Router).placeCalPoint,
		evMove:   (*Router).updateCalPreview,
		evEscape: (*Router).cancelCalibration,
	},
	store.CalLengthEntry: {
		evEnter:  (*Router).commitCalSample,
		evEscape: (*Router).cancelCalibration,
	},
}

// Handle routes one event. It returns false when the event was not
// consumed — hand-tool events, events with no resolvable position, and
// events no machine wants — so the host can apply its native handling.
func (r *Router) Handle(ev Event) bool {
	kind, screen, isPointer := classify(ev)

	var img geometry.Vec2
	var scale float64
	if isPointer {
		t, ok := r.transform()
		if !ok {
			// No established transform (photo not loaded, degenerate
			// zoom): best-effort contract, silently ignore.
			return false
		}
		img = t.ScreenToImg(screen)
		scale = t.S
	}

	cs := r.store.CalState()
	if cs.Consuming() {
		if act, ok := calTable[cs][kind]; ok {
			return act(r, img)
		}
		return true
	}
	if cs == store.CalReady && kind == evEscape {
		// Ready is passive except for Escape, which dismisses the
		// calibration machine back to idle. An active drawing path has
		// first claim on the key: cancel the path now, dismiss ready on
		// the next press.
		if _, active := r.store.Transient(); !active {
			return r.cancelCalibration(img)
		}
	}

	tool := r.store.ActiveTool()
	switch {
	case tool == store.ToolHand:
		return false
	case tool == store.ToolEraser:
		return r.erase(kind, img, scale)
	case tool.Drawing():
		return r.draw(tool, kind, img)
	}
	return false
}

func classify(ev Event) (kind evKind, pos geometry.Vec2, isPointer bool) {
	switch e := ev.(type) {
	case PointerDown:
		return evDown, e.Pos, true
	case PointerMove:
		return evMove, e.Pos, true
	case PointerUp:
		return evUp, e.Pos, true
	case KeyEscape:
		return evEscape, geometry.Vec2{}, false
	default:
		return evEnter, geometry.Vec2{}, false
	}
}

func (r *Router) transform() (viewport.Transform, bool) {
	w, h := r.store.ContainerSize()
	t, err := viewport.Make(r.store.Space(), w, h)
	if err != nil {
		return viewport.Transform{}, false
	}
	return t, true
}

// --- calibration actions ---

func (r *Router) placeCalPoint(img geometry.Vec2) bool {
	r.store.PlaceCalPoint(img)
	return true
}

func (r *Router) updateCalPreview(img geometry.Vec2) bool {
	r.store.UpdateCalPreview(img)
	return true
}

func (r *Router) commitCalSample(geometry.Vec2) bool {
	// A rejected commit (unparsable or too-short meters) leaves the
	// machine in lengthEntry; the key is consumed either way.
	_, _ = r.store.CommitCalSample()
	return true
}

func (r *Router) cancelCalibration(geometry.Vec2) bool {
	r.store.CancelCalibration()
	return true
}

// --- drawing tools ---

func (r *Router) draw(tool store.Tool, kind evKind, img geometry.Vec2) bool {
	_, active := r.store.Transient()
	switch kind {
	case evDown:
		if active {
			r.store.AppendPoint(img)
		} else {
			r.store.StartPath(tool, img)
		}
		return true
	case evMove:
		if !active {
			return false
		}
		r.store.UpdatePathPreview(img)
		return true
	case evEnter:
		if !active {
			return false
		}
		// Too few points: commit no-ops, path survives, key consumed.
		_, _ = r.store.CommitPath()
		return true
	case evEscape:
		if !active {
			return false
		}
		r.store.CancelPath()
		return true
	}
	return false
}

// --- eraser ---

func (r *Router) erase(kind evKind, img geometry.Vec2, scale float64) bool {
	switch kind {
	case evDown:
		r.pointerHeld = true
		return r.eraseAt(img, scale)
	case evMove:
		if !r.pointerHeld {
			return false
		}
		return r.eraseAt(img, scale)
	case evUp:
		held := r.pointerHeld
		r.pointerHeld = false
		return held
	}
	return false
}

func (r *Router) eraseAt(img geometry.Vec2, scale float64) bool {
	id := r.store.SelectedMaskID()
	if id == "" || scale <= 0 {
		return false
	}
	// Brush is sized in screen pixels; convert to an image-space radius.
	_, _ = r.store.EraseFromMask(id, img, r.brushPx/scale)
	return true
}
