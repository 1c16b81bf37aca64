package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotelens/photomask/geometry"
)

func sampleWithPPM(id string, ppm float64) Sample {
	return Sample{ID: id, A: geometry.Vec2{}, B: geometry.Vec2{X: ppm}, Meters: 1, PPM: ppm}
}

func TestCommitSample(t *testing.T) {
	e := NewEngine(0)
	a := geometry.Vec2{X: 100, Y: 100}
	b := geometry.Vec2{X: 300, Y: 100}

	t.Run("valid", func(t *testing.T) {
		s, err := e.CommitSample(a, b, 2.0, 0)
		require.NoError(t, err)
		assert.InDelta(t, 100, s.PPM, 1e-9)
		assert.NotEmpty(t, s.ID)
		assert.False(t, s.CreatedAt.IsZero())
	})

	t.Run("rejections", func(t *testing.T) {
		test := []struct {
			name     string
			a, b     geometry.Vec2
			meters   float64
			existing int
			wantErr  error
		}{
			{"below minimum", a, b, 0.1, 0, ErrReferenceTooShort},
			{"at minimum accepted", a, b, 0.25, 0, nil},
			{"NaN meters", a, b, math.NaN(), 0, ErrReferenceTooShort},
			{"infinite meters", a, b, math.Inf(1), 0, ErrReferenceTooShort},
			{"zero-length segment", a, a, 1, 0, ErrZeroLengthSegment},
			{"sample limit", a, b, 1, MaxSamples, ErrTooManySamples},
		}
		for _, tt := range test {
			t.Run(tt.name, func(t *testing.T) {
				_, err := e.CommitSample(tt.a, tt.b, tt.meters, tt.existing)
				if tt.wantErr == nil {
					assert.NoError(t, err)
					return
				}
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	t.Run("host floor override", func(t *testing.T) {
		e := NewEngine(1.0)
		_, err := e.CommitSample(a, b, 0.5, 0)
		assert.ErrorIs(t, err, ErrReferenceTooShort)
	})
}

func TestAggregate(t *testing.T) {
	t.Run("empty set is absent, not zero", func(t *testing.T) {
		_, ok := Aggregate(nil)
		assert.False(t, ok)
	})

	t.Run("identical samples", func(t *testing.T) {
		c, ok := Aggregate([]Sample{
			sampleWithPPM("1", 100), sampleWithPPM("2", 100), sampleWithPPM("3", 100),
		})
		require.True(t, ok)
		assert.InDelta(t, 100, c.PPM, 1e-9)
		assert.InDelta(t, 0, c.StdevPct, 1e-9)
		assert.Equal(t, High, c.Confidence())
	})

	t.Run("spread samples never high", func(t *testing.T) {
		c, ok := Aggregate([]Sample{
			sampleWithPPM("1", 80), sampleWithPPM("2", 100), sampleWithPPM("3", 120),
		})
		require.True(t, ok)
		assert.InDelta(t, 100, c.PPM, 1e-9)
		assert.Greater(t, c.StdevPct, 0.0)
		assert.NotEqual(t, High, c.Confidence())
	})

	t.Run("single sample is stdev zero but low", func(t *testing.T) {
		c, ok := Aggregate([]Sample{sampleWithPPM("1", 123.4)})
		require.True(t, ok)
		assert.Equal(t, 0.0, c.StdevPct)
		assert.Equal(t, Low, c.Confidence())
	})
}

func TestTiers(t *testing.T) {
	tiers := DefaultTiers()
	assert.Equal(t, High, tiers.Tier(0))
	assert.Equal(t, High, tiers.Tier(4.99))
	assert.Equal(t, Medium, tiers.Tier(5))
	assert.Equal(t, Medium, tiers.Tier(14.99))
	assert.Equal(t, Low, tiers.Tier(15))
	assert.Equal(t, Low, tiers.Tier(90))

	// Monotonic: lower variance never yields a worse tier.
	prev := High
	for pct := 0.0; pct < 30; pct += 0.5 {
		cur := tiers.Tier(pct)
		assert.LessOrEqual(t, int(cur), int(prev))
		prev = cur
	}

	assert.Error(t, Tiers{HighMaxPct: 10, MediumMaxPct: 5}.Validate())
	assert.NoError(t, tiers.Validate())
}

func TestDelete(t *testing.T) {
	samples := []Sample{sampleWithPPM("a", 90), sampleWithPPM("b", 110)}

	rest, err := Delete(samples, "a")
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "b", rest[0].ID)

	rest, err = Delete(rest, "b")
	require.NoError(t, err)
	_, ok := Aggregate(rest)
	assert.False(t, ok, "emptied set must aggregate to absent")

	_, err = Delete(rest, "nope")
	assert.ErrorIs(t, err, ErrSampleNotFound)
}
