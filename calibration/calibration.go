// Package calibration converts user-declared reference lengths into a
// trustworthy pixels-per-meter figure with a variance-based confidence
// signal. One Calibration exists per photo; it is replaced wholesale
// whenever its sample set changes.
package calibration

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/quotelens/photomask/geometry"
)

const (
	// MinReferenceMeters is the hard floor for a declared reference
	// length, enforced at input validation and again at commit time.
	MinReferenceMeters = 0.25

	// MaxSamples bounds the sample set per photo.
	MaxSamples = 5
)

var (
	ErrReferenceTooShort = errors.New("calibration: reference length below minimum")
	ErrZeroLengthSegment = errors.New("calibration: segment endpoints coincide")
	ErrTooManySamples    = errors.New("calibration: sample limit reached")
	ErrSampleNotFound    = errors.New("calibration: sample not found")
)

// Sample is one committed reference measurement: a pixel segment in
// image space declared to span Meters in the real world. Immutable once
// committed; deletable individually.
type Sample struct {
	ID        string        `json:"id"`
	A         geometry.Vec2 `json:"a"`
	B         geometry.Vec2 `json:"b"`
	Meters    float64       `json:"meters"`
	PPM       float64       `json:"ppm"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Calibration aggregates 1..MaxSamples samples into a single
// pixels-per-meter figure. StdevPct is the coefficient of variation of
// the samples' ppm values, as a percentage.
type Calibration struct {
	PPM      float64  `json:"ppm"`
	Samples  []Sample `json:"samples"`
	StdevPct float64  `json:"stdevPct"`
}

// Confidence buckets the calibration variance.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// Tiers holds the stdevPct cut-offs for the confidence buckets. A
// calibration is High below HighMaxPct, Medium below MediumMaxPct, Low
// otherwise, so lower variance can never yield a worse tier.
type Tiers struct {
	HighMaxPct   float64
	MediumMaxPct float64
}

// DefaultTiers are the product defaults: <5% high, <15% medium.
func DefaultTiers() Tiers { return Tiers{HighMaxPct: 5, MediumMaxPct: 15} }

func (t Tiers) Validate() error {
	if t.HighMaxPct <= 0 || t.MediumMaxPct <= t.HighMaxPct {
		return fmt.Errorf("calibration: tiers must satisfy 0 < high (%v) < medium (%v)", t.HighMaxPct, t.MediumMaxPct)
	}
	return nil
}

// Tier buckets a stdevPct with the given cut-offs.
func (t Tiers) Tier(stdevPct float64) Confidence {
	switch {
	case stdevPct < t.HighMaxPct:
		return High
	case stdevPct < t.MediumMaxPct:
		return Medium
	default:
		return Low
	}
}

// Confidence returns the tier for this calibration under the default
// cut-offs. A single sample is always Low: it cannot be corroborated,
// whatever its variance reads.
func (c Calibration) Confidence() Confidence {
	return c.ConfidenceWith(DefaultTiers())
}

// ConfidenceWith is Confidence with host-supplied cut-offs.
func (c Calibration) ConfidenceWith(t Tiers) Confidence {
	if len(c.Samples) < 2 {
		return Low
	}
	return t.Tier(c.StdevPct)
}

// Engine validates and builds samples. Zero value is not usable; use
// NewEngine.
type Engine struct {
	minMeters  float64
	maxSamples int
	now        func() time.Time
	newID      func() string
}

// NewEngine returns an engine with the product defaults. A minMeters
// of zero keeps MinReferenceMeters.
func NewEngine(minMeters float64) *Engine {
	if minMeters <= 0 {
		minMeters = MinReferenceMeters
	}
	return &Engine{
		minMeters:  minMeters,
		maxSamples: MaxSamples,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// MinMeters reports the engine's reference-length floor.
func (e *Engine) MinMeters() float64 { return e.minMeters }

// ValidMeters reports whether a declared length would pass CommitSample.
// Hosts use it to gate the commit action while the user types.
func (e *Engine) ValidMeters(meters float64) bool {
	return isFinite(meters) && meters >= e.minMeters
}

// CommitSample validates one placement cycle and produces an immutable
// sample. existing is the photo's current sample count, enforcing
// MaxSamples. Rejections are surfaced to the caller, never coerced.
func (e *Engine) CommitSample(a, b geometry.Vec2, meters float64, existing int) (Sample, error) {
	if existing >= e.maxSamples {
		return Sample{}, fmt.Errorf("%w: %d of %d", ErrTooManySamples, existing, e.maxSamples)
	}
	if !e.ValidMeters(meters) {
		return Sample{}, fmt.Errorf("%w: got %vm, minimum %vm", ErrReferenceTooShort, meters, e.minMeters)
	}
	px := a.Dist(b)
	if px == 0 {
		return Sample{}, ErrZeroLengthSegment
	}
	return Sample{
		ID:        e.newID(),
		A:         a,
		B:         b,
		Meters:    meters,
		PPM:       px / meters,
		CreatedAt: e.now(),
	}, nil
}

// Aggregate folds a sample set into a Calibration. The second return is
// false for an empty set: "no calibration" is a distinct state from a
// zero ppm and consumers must treat it as absent, not as zero.
//
// StdevPct uses the population standard deviation, so a single sample
// yields exactly 0 (its confidence is still Low, see ConfidenceWith).
func Aggregate(samples []Sample) (Calibration, bool) {
	if len(samples) == 0 {
		return Calibration{}, false
	}
	ppms := make([]float64, len(samples))
	for i, s := range samples {
		ppms[i] = s.PPM
	}
	mean := stat.Mean(ppms, nil)
	c := Calibration{
		PPM:     mean,
		Samples: samples,
	}
	if mean != 0 {
		c.StdevPct = 100 * stat.PopStdDev(ppms, nil) / mean
	}
	return c, true
}

// Delete removes the sample with the given id, returning the surviving
// samples for the caller to re-aggregate. Deleting the last sample
// yields an empty set, which Aggregate reports as an absent
// calibration.
func Delete(samples []Sample, id string) ([]Sample, error) {
	for i, s := range samples {
		if s.ID == id {
			return append(samples[:i:i], samples[i+1:]...), nil
		}
	}
	return samples, fmt.Errorf("%w: %s", ErrSampleNotFound, id)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
