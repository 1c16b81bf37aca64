package photomask

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/quotelens/photomask/calibration"
	"github.com/quotelens/photomask/store"
	"github.com/quotelens/photomask/viewport"
)

// Config holds the host-tunable editor parameters. Values not set in a
// loaded file keep their defaults.
type Config struct {
	// ZoomMin and ZoomMax bound the zoom clamp.
	ZoomMin float64 `toml:"zoom_min"`
	ZoomMax float64 `toml:"zoom_max"`

	// BrushSizePx is the eraser brush radius in screen pixels.
	BrushSizePx float64 `toml:"brush_size_px"`

	// MinReferenceMeters is the calibration reference-length floor.
	// The product-wide hard floor of 0.25m always applies; this can
	// only raise it.
	MinReferenceMeters float64 `toml:"min_reference_meters"`

	// BandHeightM is the initial waterline band height.
	BandHeightM float64 `toml:"band_height_m"`

	Confidence ConfidenceConfig `toml:"confidence"`
}

// ConfidenceConfig holds the stdevPct cut-offs for the confidence tiers.
type ConfidenceConfig struct {
	HighMaxPct   float64 `toml:"high_max_pct"`
	MediumMaxPct float64 `toml:"medium_max_pct"`
}

// DefaultConfig returns the product defaults.
func DefaultConfig() Config {
	tiers := calibration.DefaultTiers()
	return Config{
		ZoomMin:            viewport.DefaultMinZoom,
		ZoomMax:            viewport.DefaultMaxZoom,
		BrushSizePx:        16,
		MinReferenceMeters: calibration.MinReferenceMeters,
		BandHeightM:        store.DefaultBandHeightM,
		Confidence: ConfidenceConfig{
			HighMaxPct:   tiers.HighMaxPct,
			MediumMaxPct: tiers.MediumMaxPct,
		},
	}
}

// Tiers converts the configured cut-offs to the calibration form.
func (c Config) Tiers() calibration.Tiers {
	return calibration.Tiers{
		HighMaxPct:   c.Confidence.HighMaxPct,
		MediumMaxPct: c.Confidence.MediumMaxPct,
	}
}

// Validate rejects configurations the editor cannot run under.
func (c Config) Validate() error {
	if c.ZoomMin <= 0 || c.ZoomMax <= c.ZoomMin {
		return fmt.Errorf("photomask: zoom bounds must satisfy 0 < min < max, got [%v, %v]", c.ZoomMin, c.ZoomMax)
	}
	if c.BrushSizePx <= 0 {
		return fmt.Errorf("photomask: brush_size_px must be positive, got %v", c.BrushSizePx)
	}
	if c.MinReferenceMeters < calibration.MinReferenceMeters {
		return fmt.Errorf("photomask: min_reference_meters %v is below the hard floor %v",
			c.MinReferenceMeters, calibration.MinReferenceMeters)
	}
	if c.BandHeightM <= 0 {
		return fmt.Errorf("photomask: band_height_m must be positive, got %v", c.BandHeightM)
	}
	if err := c.Tiers().Validate(); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads a TOML config file over the defaults and validates
// the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("photomask: load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
