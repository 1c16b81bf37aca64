package mask

import (
	"github.com/quotelens/photomask/calibration"
	"github.com/quotelens/photomask/geometry"
)

// Metrics are the real-world measurements derived from a mask's pixel
// geometry and the photo's calibration. They are a pure function of
// (geometry, ppm): recompute on every change to either, never cache one
// across a calibration edit.
type Metrics struct {
	AreaM2     float64 `json:"area_m2,omitempty"`
	PerimeterM float64 `json:"perimeter_m,omitempty"`
}

// Derive computes metrics for m under cal. The second return is false
// when cal is absent (nil): without a calibration no real-world metric
// exists, which is distinct from a metric of zero.
//
//   - area: area_m2 from the shoelace area of ring minus holes,
//     perimeter_m from the closed ring.
//   - linear: perimeter_m from the open line.
//   - waterline_band: perimeter_m from the line, area_m2 as
//     perimeter_m x bandHeightM (a band of constant height).
func Derive(m Mask, cal *calibration.Calibration) (Metrics, bool) {
	if cal == nil || cal.PPM <= 0 {
		return Metrics{}, false
	}
	ppm := cal.PPM
	switch v := m.(type) {
	case *Area:
		return Metrics{
			AreaM2:     geometry.PolygonAreaWithHoles(v.Ring, v.Holes) / (ppm * ppm),
			PerimeterM: geometry.RingPerimeter(v.Ring) / ppm,
		}, true
	case *Linear:
		return Metrics{
			PerimeterM: geometry.PathLength(v.Line) / ppm,
		}, true
	case *WaterlineBand:
		lengthM := geometry.PathLength(v.Line) / ppm
		return Metrics{
			AreaM2:     lengthM * v.BandHeightM,
			PerimeterM: lengthM,
		}, true
	default:
		return Metrics{}, false
	}
}
