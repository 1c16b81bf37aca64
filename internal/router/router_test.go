package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotelens/photomask/geometry"
	"github.com/quotelens/photomask/store"
	"github.com/quotelens/photomask/viewport"
)

// Session over a 1000x1000 photo in a 1000x1000 container at fit scale 1,
// zoom 1, no pan: screen coordinates equal image coordinates, which keeps
// the expected geometry readable.
func newFixture() (*Router, *store.Memory) {
	m := store.NewMemory(store.Config{
		PhotoID:    "photo-1",
		Space:      viewport.NewSpace(1000, 1000, 1000, 1000),
		ContainerW: 1000,
		ContainerH: 1000,
	})
	return New(m, 16), m
}

func down(x, y float64) Event { return PointerDown{Pos: geometry.Vec2{X: x, Y: y}} }
func move(x, y float64) Event { return PointerMove{Pos: geometry.Vec2{X: x, Y: y}} }

func TestHandToolDefersToNativeDrag(t *testing.T) {
	r, _ := newFixture()
	assert.False(t, r.Handle(down(10, 10)))
	assert.False(t, r.Handle(move(20, 20)))
	assert.False(t, r.Handle(PointerUp{Pos: geometry.Vec2{X: 20, Y: 20}}))
}

func TestUnresolvableTransformIsIgnored(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolArea)
	sp := m.Space()
	sp.Zoom = 0
	m.SetSpace(sp)

	assert.False(t, r.Handle(down(10, 10)), "degenerate scale: silently ignore")
	_, ok := m.Transient()
	assert.False(t, ok)

	// Keys still work without a transform.
	m.BeginCalibration()
	assert.True(t, r.Handle(KeyEscape{}))
	assert.Equal(t, store.CalIdle, m.CalState())
}

func TestCalibrationFlow(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolArea) // drawing tool nominally active throughout

	m.BeginCalibration()
	require.True(t, r.Handle(down(100, 100)))
	assert.Equal(t, store.CalPlacingB, m.CalState())

	require.True(t, r.Handle(move(250, 100)), "preview tracked while placing B")
	require.NotNil(t, m.CalTemp().Preview)

	// Mutual exclusion: this pointer-down belongs to calibration even
	// though the area tool is selected.
	require.True(t, r.Handle(down(300, 100)))
	assert.Equal(t, store.CalLengthEntry, m.CalState())
	_, hasPath := m.Transient()
	assert.False(t, hasPath, "drawing tool never saw the click")

	// Enter with an invalid length is a consumed no-op.
	m.SetCalMeters("0.1")
	require.True(t, r.Handle(KeyEnter{}))
	assert.Equal(t, store.CalLengthEntry, m.CalState())

	m.SetCalMeters("2.0")
	require.True(t, r.Handle(KeyEnter{}))
	assert.Equal(t, store.CalReady, m.CalState())
	cal, ok := m.Calibration()
	require.True(t, ok)
	assert.InDelta(t, 100, cal.PPM, 1e-9)
}

func TestCalibrationReadyIsPassive(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolArea)
	m.BeginCalibration()
	r.Handle(down(0, 0))
	r.Handle(down(200, 0))
	m.SetCalMeters("2")
	require.True(t, r.Handle(KeyEnter{}))
	require.Equal(t, store.CalReady, m.CalState())

	// In ready the drawing tools get input back.
	require.True(t, r.Handle(down(10, 10)))
	_, ok := m.Transient()
	assert.True(t, ok)
}

func TestEscapeDismissesReady(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolArea)
	m.BeginCalibration()
	r.Handle(down(0, 0))
	r.Handle(down(200, 0))
	m.SetCalMeters("2")
	require.True(t, r.Handle(KeyEnter{}))
	require.Equal(t, store.CalReady, m.CalState())

	t.Run("path in flight has first claim on the key", func(t *testing.T) {
		require.True(t, r.Handle(down(10, 10)))
		require.True(t, r.Handle(KeyEscape{}))
		_, ok := m.Transient()
		assert.False(t, ok, "escape cancelled the path")
		assert.Equal(t, store.CalReady, m.CalState(), "ready survives the first press")
	})

	t.Run("with no path, escape returns to idle", func(t *testing.T) {
		require.True(t, r.Handle(KeyEscape{}))
		assert.Equal(t, store.CalIdle, m.CalState())
		cal, ok := m.Calibration()
		require.True(t, ok, "committed samples survive the dismissal")
		assert.Len(t, cal.Samples, 1)
	})
}

func TestCalibrationEscapeDiscardsScratch(t *testing.T) {
	r, m := newFixture()
	m.BeginCalibration()
	r.Handle(down(100, 100))
	require.True(t, r.Handle(KeyEscape{}))
	assert.Equal(t, store.CalIdle, m.CalState())
	assert.Equal(t, store.CalTemp{}, m.CalTemp())
	_, ok := m.Calibration()
	assert.False(t, ok, "no partial sample committed")
}

func TestStrayEventsClaimedWhilePlacing(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolLinear)
	m.BeginCalibration()

	// Enter means nothing in placingA but must not reach the tool.
	assert.True(t, r.Handle(KeyEnter{}))
	assert.Equal(t, store.CalPlacingA, m.CalState())
	_, ok := m.Transient()
	assert.False(t, ok)
}

func TestDrawingLifecycle(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolArea)

	require.True(t, r.Handle(down(0, 0)))
	require.True(t, r.Handle(down(200, 0)))
	require.True(t, r.Handle(move(200, 100)))
	tr, ok := m.Transient()
	require.True(t, ok)
	assert.Len(t, tr.Points, 2, "move is preview only")

	// Enter below the area minimum: consumed, path survives.
	require.True(t, r.Handle(KeyEnter{}))
	_, ok = m.Transient()
	assert.True(t, ok)

	require.True(t, r.Handle(down(200, 100)))
	require.True(t, r.Handle(KeyEnter{}))
	_, ok = m.Transient()
	assert.False(t, ok)
	require.Len(t, m.Masks(), 1)
}

func TestDrawingCancelPurity(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolWaterline)
	r.Handle(down(0, 0))
	r.Handle(down(50, 0))
	require.True(t, r.Handle(KeyEscape{}))
	_, ok := m.Transient()
	assert.False(t, ok)
	assert.Empty(t, m.Masks(), "no partial mask exists after cancel")

	// With no path, Escape and Enter fall through unconsumed.
	assert.False(t, r.Handle(KeyEscape{}))
	assert.False(t, r.Handle(KeyEnter{}))
	assert.False(t, r.Handle(move(10, 10)), "hover with no path")
}

func TestEraser(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolArea)
	r.Handle(down(0, 0))
	r.Handle(down(200, 0))
	r.Handle(down(200, 200))
	r.Handle(down(0, 200))
	require.True(t, r.Handle(KeyEnter{}))
	id := m.Masks()[0].Common().ID

	m.SetActiveTool(store.ToolEraser)

	t.Run("nothing selected is a no-op", func(t *testing.T) {
		assert.False(t, r.Handle(down(0, 0)))
		r.Handle(PointerUp{})
	})

	m.SelectMask(id)

	t.Run("down erases vertices under the brush", func(t *testing.T) {
		require.True(t, r.Handle(down(1, 1)))
		assert.Len(t, m.Masks()[0].Points(), 3)
	})

	t.Run("drag keeps erasing until release", func(t *testing.T) {
		// Still held from the previous down. Dropping to two vertices is
		// below an area's minimum of three, so the store deletes the
		// mask outright instead of keeping invalid geometry.
		require.True(t, r.Handle(move(200, 1)))
		assert.Empty(t, m.Masks())
		assert.Empty(t, m.SelectedMaskID())

		require.True(t, r.Handle(PointerUp{}))
		assert.False(t, r.Handle(move(200, 201)), "released: moves ignored")
	})
}

func TestEraserBrushScalesWithZoom(t *testing.T) {
	r, m := newFixture()
	m.SetActiveTool(store.ToolLinear)
	r.Handle(down(0, 0))
	r.Handle(down(500, 0))
	r.Handle(down(500, 500))
	require.True(t, r.Handle(KeyEnter{}))
	id := m.Masks()[0].Common().ID
	m.SelectMask(id)

	// Zoom in 4x: the 16px screen brush covers only 4 image px.
	sp := m.Space()
	sp.Zoom = 4
	m.SetSpace(sp)

	m.SetActiveTool(store.ToolEraser)
	tr, err := viewport.Make(m.Space(), 1000, 1000)
	require.NoError(t, err)

	// Aim 10 image px away from the (500,0) vertex: outside the 4px brush.
	screen := tr.ImgToScreen(geometry.Vec2{X: 510, Y: 0})
	require.True(t, r.Handle(PointerDown{Pos: screen}))
	assert.Len(t, m.Masks()[0].Points(), 3, "vertex outside scaled brush survives")

	screen = tr.ImgToScreen(geometry.Vec2{X: 501, Y: 0})
	require.True(t, r.Handle(PointerMove{Pos: screen}))
	assert.Len(t, m.Masks()[0].Points(), 2)
}
