package photomask

import (
	"fmt"

	"github.com/quotelens/photomask/store"
)

// Option configures an Editor during creation.
type Option func(*Editor) error

// WithConfig replaces the whole configuration, typically one loaded
// from a TOML file via LoadConfig.
func WithConfig(cfg Config) Option {
	return func(e *Editor) error {
		e.cfg = cfg
		return nil
	}
}

// WithZoomBounds overrides the zoom clamp range.
func WithZoomBounds(min, max float64) Option {
	return func(e *Editor) error {
		if min <= 0 || max <= min {
			return fmt.Errorf("photomask: zoom bounds must satisfy 0 < min < max, got [%v, %v]", min, max)
		}
		e.cfg.ZoomMin, e.cfg.ZoomMax = min, max
		return nil
	}
}

// WithBrushSize sets the eraser brush radius in screen pixels.
func WithBrushSize(px float64) Option {
	return func(e *Editor) error {
		if px <= 0 {
			return fmt.Errorf("photomask: brush size must be positive, got %v", px)
		}
		e.cfg.BrushSizePx = px
		return nil
	}
}

// WithMinReferenceLength raises the calibration reference-length floor
// above the product default.
func WithMinReferenceLength(meters float64) Option {
	return func(e *Editor) error {
		if meters <= 0 {
			return fmt.Errorf("photomask: minimum reference length must be positive, got %v", meters)
		}
		e.cfg.MinReferenceMeters = meters
		return nil
	}
}

// WithBandHeight sets the initial waterline band height in meters.
func WithBandHeight(meters float64) Option {
	return func(e *Editor) error {
		if meters <= 0 {
			return fmt.Errorf("photomask: band height must be positive, got %v", meters)
		}
		e.cfg.BandHeightM = meters
		return nil
	}
}

// WithConfidenceCutoffs overrides the stdevPct cut-offs for the
// high/medium confidence tiers.
func WithConfidenceCutoffs(highMaxPct, mediumMaxPct float64) Option {
	return func(e *Editor) error {
		e.cfg.Confidence.HighMaxPct = highMaxPct
		e.cfg.Confidence.MediumMaxPct = mediumMaxPct
		return nil
	}
}

// WithSession injects a session store, typically one seeded from
// persisted state via Memory.Restore.
func WithSession(s store.Session) Option {
	return func(e *Editor) error {
		e.session = s
		return nil
	}
}

// WithPersister attaches a durable store (for example store.SQLite)
// that receives every committed write. Ignored when WithSession is
// also given: a prebuilt session carries its own persister.
func WithPersister(p store.Persister) Option {
	return func(e *Editor) error {
		e.persister = p
		return nil
	}
}
