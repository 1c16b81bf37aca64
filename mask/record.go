package mask

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quotelens/photomask/geometry"
)

// Polygon is the wire shape of an area mask's geometry.
type Polygon struct {
	Ring  []geometry.Vec2   `json:"ring"`
	Holes [][]geometry.Vec2 `json:"holes,omitempty"`
}

// Record is the persisted wire shape of a mask, tag-switched on Type.
// Geometry holds a Polygon for area masks and a bare point list for the
// polyline variants. Metrics ride along when derivable but are not
// authoritative; they are recomputed from geometry + ppm on load.
type Record struct {
	ID          string          `json:"id"`
	PhotoID     string          `json:"photoId"`
	Type        Type            `json:"type"`
	Geometry    json.RawMessage `json:"geometry"`
	BandHeightM float64         `json:"bandHeightM,omitempty"`
	AreaM2      float64         `json:"area_m2,omitempty"`
	PerimeterM  float64         `json:"perimeter_m,omitempty"`
	MaterialID  string          `json:"materialId,omitempty"`
	Material    *Material       `json:"materialMeta,omitempty"`
	CreatedBy   string          `json:"createdBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Encode flattens a mask (plus optional derived metrics) into its wire
// record.
func Encode(m Mask, metrics *Metrics) (Record, error) {
	meta := m.Common()
	r := Record{
		ID:         meta.ID,
		PhotoID:    meta.PhotoID,
		Type:       m.Type(),
		MaterialID: meta.MaterialID,
		Material:   meta.Material,
		CreatedBy:  meta.CreatedBy,
		CreatedAt:  meta.CreatedAt,
		UpdatedAt:  meta.UpdatedAt,
	}
	if metrics != nil {
		r.AreaM2 = metrics.AreaM2
		r.PerimeterM = metrics.PerimeterM
	}
	var (
		geom any
		err  error
	)
	switch v := m.(type) {
	case *Area:
		geom = Polygon{Ring: v.Ring, Holes: v.Holes}
	case *Linear:
		geom = v.Line
	case *WaterlineBand:
		geom = v.Line
		r.BandHeightM = v.BandHeightM
	default:
		return Record{}, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
	r.Geometry, err = json.Marshal(geom)
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

// Decode rebuilds the mask union value from its wire record.
func (r Record) Decode() (Mask, error) {
	meta := Meta{
		ID:         r.ID,
		PhotoID:    r.PhotoID,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		MaterialID: r.MaterialID,
		Material:   r.Material,
	}
	switch r.Type {
	case TypeArea:
		var p Polygon
		if err := json.Unmarshal(r.Geometry, &p); err != nil {
			return nil, fmt.Errorf("mask: decode area geometry: %w", err)
		}
		return &Area{Meta: meta, Ring: p.Ring, Holes: p.Holes}, nil
	case TypeLinear:
		var line []geometry.Vec2
		if err := json.Unmarshal(r.Geometry, &line); err != nil {
			return nil, fmt.Errorf("mask: decode linear geometry: %w", err)
		}
		return &Linear{Meta: meta, Line: line}, nil
	case TypeWaterlineBand:
		var line []geometry.Vec2
		if err := json.Unmarshal(r.Geometry, &line); err != nil {
			return nil, fmt.Errorf("mask: decode waterline geometry: %w", err)
		}
		return &WaterlineBand{Meta: meta, Line: line, BandHeightM: r.BandHeightM}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, r.Type)
	}
}
