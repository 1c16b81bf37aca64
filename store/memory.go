package store

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quotelens/photomask/calibration"
	"github.com/quotelens/photomask/geometry"
	"github.com/quotelens/photomask/mask"
	"github.com/quotelens/photomask/viewport"
)

// DefaultBandHeightM is the band height applied to a waterline mask at
// commit time until the user edits it.
const DefaultBandHeightM = 0.3

// Config seeds a Memory session for one photo.
type Config struct {
	PhotoID    string
	Space      viewport.Space
	ContainerW float64
	ContainerH float64

	// MinReferenceMeters overrides calibration.MinReferenceMeters when
	// positive.
	MinReferenceMeters float64

	// BandHeightM is the initial waterline band height; zero means
	// DefaultBandHeightM.
	BandHeightM float64

	// Persister, when set, receives every committed write.
	Persister Persister
}

// Memory is the in-process Session for one open photo. Access is
// serialized with a mutex; the editor event loop is single-threaded but
// hosts may read from render goroutines.
type Memory struct {
	mu sync.Mutex

	photoID        string
	space          viewport.Space
	containerW     float64
	containerH     float64
	activeTool     Tool
	selectedMaskID string

	calState CalState
	calTemp  CalTemp
	samples  []calibration.Sample
	cal      *calibration.Calibration

	transient   *Transient
	masks       []mask.Mask
	metrics     map[string]mask.Metrics
	bandHeightM float64

	engine    *calibration.Engine
	persister Persister
	now       func() time.Time
}

var _ Session = (*Memory)(nil)

// NewMemory opens a fresh editor session. The session starts with the
// hand tool active and calibration idle.
func NewMemory(cfg Config) *Memory {
	band := cfg.BandHeightM
	if band <= 0 {
		band = DefaultBandHeightM
	}
	return &Memory{
		photoID:     cfg.PhotoID,
		space:       cfg.Space,
		containerW:  cfg.ContainerW,
		containerH:  cfg.ContainerH,
		activeTool:  ToolHand,
		calState:    CalIdle,
		metrics:     map[string]mask.Metrics{},
		bandHeightM: band,
		engine:      calibration.NewEngine(cfg.MinReferenceMeters),
		persister:   cfg.Persister,
		now:         time.Now,
	}
}

// Restore seeds previously persisted masks and calibration into the
// session, typically from SQLite.LoadPhoto. Metrics are rederived from
// geometry + ppm rather than trusted from the records.
func (m *Memory) Restore(recs []mask.Record, cal *calibration.Calibration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cal != nil {
		c := *cal
		m.cal = &c
		m.samples = append([]calibration.Sample(nil), cal.Samples...)
	}
	for _, rec := range recs {
		mk, err := rec.Decode()
		if err != nil {
			return err
		}
		m.masks = append(m.masks, mk)
	}
	m.rederiveMetrics()
	return nil
}

func (m *Memory) PhotoID() string {
	return m.photoID
}

func (m *Memory) ActiveTool() Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeTool
}

// SetActiveTool switches tools. Switching away from a drawing tool
// discards any transient path: a path can only ever be committed by the
// tool that started it.
func (m *Memory) SetActiveTool(t Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t == m.activeTool {
		return
	}
	m.activeTool = t
	m.transient = nil
}

func (m *Memory) Space() viewport.Space {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.space
}

func (m *Memory) SetSpace(s viewport.Space) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.space = s
}

func (m *Memory) ContainerSize() (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.containerW, m.containerH
}

// SetContainerSize tracks viewport resizes so transforms stay honest.
func (m *Memory) SetContainerSize(w, h float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containerW, m.containerH = w, h
}

// --- transient drawing path ---

func (m *Memory) Transient() (Transient, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transient == nil {
		return Transient{}, false
	}
	t := *m.transient
	t.Points = append([]geometry.Vec2(nil), m.transient.Points...)
	return t, true
}

func (m *Memory) StartPath(t Tool, p geometry.Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transient != nil || !t.Drawing() {
		return
	}
	m.transient = &Transient{Tool: t, Points: []geometry.Vec2{p}}
}

func (m *Memory) AppendPoint(p geometry.Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transient == nil {
		return
	}
	m.transient.Points = append(m.transient.Points, p)
}

func (m *Memory) UpdatePathPreview(p geometry.Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transient == nil {
		return
	}
	m.transient.Preview = &p
}

// CommitPath turns the transient path into a committed mask. On any
// failure (too few points for the mask type) the transient path is left
// intact so the user can keep drawing.
func (m *Memory) CommitPath() (mask.Mask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transient == nil {
		return nil, ErrNoTransientPath
	}
	t, ok := m.transient.Tool.MaskType()
	if !ok {
		return nil, fmt.Errorf("store: tool %q cannot commit a mask", m.transient.Tool)
	}
	mk, err := mask.New(t, m.photoID, append([]geometry.Vec2(nil), m.transient.Points...), m.bandHeightM, m.now())
	if err != nil {
		return nil, err
	}
	m.masks = append(m.masks, mk)
	m.transient = nil
	m.rederiveMetrics()
	return mk, m.persistMask(mk)
}

func (m *Memory) CancelPath() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transient = nil
}

// --- calibration placement ---

func (m *Memory) CalState() CalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calState
}

func (m *Memory) CalTemp() CalTemp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calTemp
}

func (m *Memory) BeginCalibration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calState.Consuming() {
		return
	}
	m.calTemp = CalTemp{}
	m.calState = CalPlacingA
}

func (m *Memory) PlaceCalPoint(p geometry.Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.calState {
	case CalPlacingA:
		m.calTemp.A = &p
		m.calState = CalPlacingB
	case CalPlacingB:
		m.calTemp.B = &p
		m.calTemp.Preview = nil
		m.calState = CalLengthEntry
	}
}

func (m *Memory) UpdateCalPreview(p geometry.Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calState == CalPlacingB {
		m.calTemp.Preview = &p
	}
}

func (m *Memory) SetCalMeters(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calState == CalLengthEntry {
		m.calTemp.Meters = text
	}
}

// CommitCalSample validates and commits the pending placement. On any
// rejection the state is left exactly as it was, making Enter a no-op
// rather than a soft warning. Success transitions to CalReady.
func (m *Memory) CommitCalSample() (calibration.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calState != CalLengthEntry || m.calTemp.A == nil || m.calTemp.B == nil {
		return calibration.Sample{}, ErrWrongCalState
	}
	meters, err := strconv.ParseFloat(strings.TrimSpace(m.calTemp.Meters), 64)
	if err != nil {
		return calibration.Sample{}, fmt.Errorf("%w: %q", ErrBadMeters, m.calTemp.Meters)
	}
	s, err := m.engine.CommitSample(*m.calTemp.A, *m.calTemp.B, meters, len(m.samples))
	if err != nil {
		return calibration.Sample{}, err
	}
	m.samples = append(m.samples, s)
	m.calTemp = CalTemp{}
	m.calState = CalReady
	m.reaggregate()
	return s, m.persistCalibration()
}

func (m *Memory) CancelCalibration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calTemp = CalTemp{}
	m.calState = CalIdle
}

func (m *Memory) DeleteCalSample(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rest, err := calibration.Delete(m.samples, id)
	if err != nil {
		return err
	}
	m.samples = rest
	m.reaggregate()
	return m.persistCalibration()
}

func (m *Memory) Calibration() (calibration.Calibration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cal == nil {
		return calibration.Calibration{}, false
	}
	return *m.cal, true
}

// --- committed masks ---

func (m *Memory) Masks() []mask.Mask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mask.Mask(nil), m.masks...)
}

func (m *Memory) MaskMetrics(id string) (mask.Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.metrics[id]
	return mt, ok
}

func (m *Memory) SelectMask(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedMaskID = id
}

func (m *Memory) SelectedMaskID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedMaskID
}

// EraseFromMask removes vertices within radius (image px) of center.
// When erasure leaves the mask below its minimum vertex count, the mask
// is deleted rather than persisted in an invalid state; deleted reports
// that outcome.
func (m *Memory) EraseFromMask(id string, center geometry.Vec2, radius float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, mk := m.find(id)
	if mk == nil {
		return false, fmt.Errorf("%w: %s", ErrMaskNotFound, id)
	}
	kept := geometry.EraseVertices(mk.Points(), center, radius)
	if len(kept) == len(mk.Points()) {
		return false, nil
	}
	edited := mk.WithPoints(kept)
	if !mask.Valid(edited) {
		m.removeAt(i)
		if m.selectedMaskID == id {
			m.selectedMaskID = ""
		}
		return true, m.persistDeleteMask(id)
	}
	edited.Common().UpdatedAt = m.now()
	m.masks[i] = edited
	m.rederiveMetrics()
	return false, m.persistMask(edited)
}

func (m *Memory) MoveMaskPoint(id string, index int, p geometry.Vec2) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, mk := m.find(id)
	if mk == nil {
		return fmt.Errorf("%w: %s", ErrMaskNotFound, id)
	}
	pts := mk.Points()
	if index < 0 || index >= len(pts) {
		return fmt.Errorf("%w: %d of %d", ErrBadPointIndex, index, len(pts))
	}
	edited := append([]geometry.Vec2(nil), pts...)
	edited[index] = p
	moved := mk.WithPoints(edited)
	moved.Common().UpdatedAt = m.now()
	m.masks[i] = moved
	m.rederiveMetrics()
	return m.persistMask(moved)
}

func (m *Memory) AttachMaterial(id, materialID string, mat mask.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, mk := m.find(id)
	if mk == nil {
		return fmt.Errorf("%w: %s", ErrMaskNotFound, id)
	}
	// Copy-on-write like the geometry edits: masks handed out via Masks
	// must not change underfoot.
	edited := mk.WithPoints(mk.Points())
	meta := edited.Common()
	meta.MaterialID = materialID
	meta.Material = &mat
	meta.UpdatedAt = m.now()
	m.masks[i] = edited
	return m.persistMask(edited)
}

func (m *Memory) DeleteMask(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, mk := m.find(id)
	if mk == nil {
		return fmt.Errorf("%w: %s", ErrMaskNotFound, id)
	}
	m.removeAt(i)
	if m.selectedMaskID == id {
		m.selectedMaskID = ""
	}
	return m.persistDeleteMask(id)
}

// --- internals (m.mu held) ---

func (m *Memory) find(id string) (int, mask.Mask) {
	for i, mk := range m.masks {
		if mk.Common().ID == id {
			return i, mk
		}
	}
	return -1, nil
}

func (m *Memory) removeAt(i int) {
	id := m.masks[i].Common().ID
	m.masks = append(m.masks[:i], m.masks[i+1:]...)
	delete(m.metrics, id)
}

func (m *Memory) reaggregate() {
	if cal, ok := calibration.Aggregate(m.samples); ok {
		m.cal = &cal
	} else {
		m.cal = nil
	}
	m.rederiveMetrics()
}

// rederiveMetrics recomputes every mask's metrics from geometry + ppm.
// Runs after any geometry or calibration change; stale metrics must
// never survive either.
func (m *Memory) rederiveMetrics() {
	m.metrics = map[string]mask.Metrics{}
	for _, mk := range m.masks {
		if mt, ok := mask.Derive(mk, m.cal); ok {
			m.metrics[mk.Common().ID] = mt
		}
	}
}

func (m *Memory) persistMask(mk mask.Mask) error {
	if m.persister == nil {
		return nil
	}
	var mt *mask.Metrics
	if v, ok := m.metrics[mk.Common().ID]; ok {
		mt = &v
	}
	rec, err := mask.Encode(mk, mt)
	if err != nil {
		return err
	}
	if err := m.persister.SaveMask(m.photoID, rec); err != nil {
		return fmt.Errorf("store: persist mask %s: %w", mk.Common().ID, err)
	}
	return nil
}

func (m *Memory) persistDeleteMask(id string) error {
	if m.persister == nil {
		return nil
	}
	if err := m.persister.DeleteMask(m.photoID, id); err != nil {
		return fmt.Errorf("store: delete mask %s: %w", id, err)
	}
	return nil
}

func (m *Memory) persistCalibration() error {
	if m.persister == nil {
		return nil
	}
	var err error
	if m.cal == nil {
		err = m.persister.DeleteCalibration(m.photoID)
	} else {
		err = m.persister.SaveCalibration(m.photoID, *m.cal)
	}
	if err != nil {
		return fmt.Errorf("store: persist calibration: %w", err)
	}
	return nil
}
