package frame

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(t *testing.T, p Params) *Frame {
	t.Helper()
	f, err := New(p)
	require.NoError(t, err)
	return f
}

func TestNewRejectsBadGeometry(t *testing.T) {
	for _, p := range []Params{
		{Fchans: 0, Tchans: 1, Df: 1, Dt: 1},
		{Fchans: 1, Tchans: 0, Df: 1, Dt: 1},
		{Fchans: 1, Tchans: 1, Df: 0, Dt: 1},
		{Fchans: 1, Tchans: 1, Df: 1, Dt: -1},
		{Fchans: 1, Tchans: 1, Df: math.NaN(), Dt: 1},
		{Fchans: 1, Tchans: 1, Df: 1, Dt: math.NaN()},
		{Fchans: 1, Tchans: 1, Df: math.Inf(1), Dt: 1},
	} {
		_, err := New(p)
		assert.Error(t, err, "%+v", p)
	}
}

func TestFrequencyMapping(t *testing.T) {
	desc := testFrame(t, Params{Fchans: 1024, Tchans: 16, Df: 1, Dt: 1, Fch1: 1000e6})
	assert.Equal(t, 1000e6, desc.Frequency(0))
	assert.Equal(t, 1000e6-10, desc.Frequency(10))
	assert.Equal(t, 10, desc.Index(desc.Frequency(10)))
	assert.Equal(t, "synthetic", desc.SourceName)

	asc := testFrame(t, Params{Fchans: 8, Tchans: 2, Df: 2.5, Dt: 1, Fch1: 100, Ascending: true})
	assert.Equal(t, 117.5, asc.Frequency(7))
	assert.Equal(t, 7, asc.Index(117.5))
	assert.Equal(t, 20.0, asc.Bandwidth())
	assert.Equal(t, 2.0, asc.Duration())
	assert.Equal(t, 1.0, asc.Time(1))
}

func TestAddNoiseNormal(t *testing.T) {
	f := testFrame(t, Params{Fchans: 512, Tchans: 64, Df: 1, Dt: 1})
	require.NoError(t, f.AddNoise(10, 2, NoiseNormal, rand.NewPCG(1, 1)))
	mean, std := f.NoiseStats()
	assert.InDelta(t, 10, mean, 0.05)
	assert.InDelta(t, 2, std, 0.05)
}

func TestAddNoiseChi2(t *testing.T) {
	f := testFrame(t, Params{Fchans: 512, Tchans: 64, Df: 2, Dt: 2})
	require.NoError(t, f.AddNoise(5, 0, NoiseChi2, rand.NewPCG(2, 2)))
	mean, std := f.NoiseStats()
	// k = 8, so std = mean * sqrt(2/k).
	assert.InDelta(t, 5, mean, 0.05)
	assert.InDelta(t, 5*math.Sqrt(2.0/8), std, 0.05)
	for _, v := range f.Data().RawMatrix().Data {
		if v < 0 {
			t.Fatalf("chi2 noise produced negative value %f", v)
		}
	}
}

func TestAddNoiseUnknownType(t *testing.T) {
	f := testFrame(t, Params{Fchans: 4, Tchans: 4, Df: 1, Dt: 1})
	assert.Error(t, f.AddNoise(0, 1, "pink", nil))
}

func TestAddNoiseRejectsNonFinite(t *testing.T) {
	f := testFrame(t, Params{Fchans: 4, Tchans: 2, Df: 1, Dt: 1})
	assert.Error(t, f.AddNoise(math.NaN(), 1, NoiseChi2, rand.NewPCG(1, 1)))
	assert.Error(t, f.AddNoise(0, math.NaN(), NoiseNormal, rand.NewPCG(1, 1)))
	assert.Error(t, f.AddNoise(0, math.Inf(1), NoiseGaussian, rand.NewPCG(1, 1)))
	mean, std := f.NoiseStats()
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestIntensity(t *testing.T) {
	f := testFrame(t, Params{Fchans: 4, Tchans: 16, Df: 1, Dt: 1})
	// No noise: reference std of 1.
	assert.Equal(t, 10.0/4, f.Intensity(10))

	g := testFrame(t, Params{Fchans: 1024, Tchans: 16, Df: 1, Dt: 1})
	require.NoError(t, g.AddNoise(0, 3, NoiseGaussian, rand.NewPCG(5, 5)))
	assert.InDelta(t, 10*3.0/4, g.Intensity(10), 0.1)
}

func TestAddConstantSignalBoxNoDrift(t *testing.T) {
	f := testFrame(t, Params{Fchans: 1024, Tchans: 16, Df: 1, Dt: 1, Fch1: 1000e6})
	start := 300
	require.NoError(t, f.AddConstantSignal(f.Frequency(start), 0, 7, 5, ProfileConstant))

	for i := 0; i < f.Tchans; i++ {
		row := f.Row(i)
		for j, v := range row {
			switch {
			case j >= start-2 && j <= start+2:
				assert.Equal(t, 7.0, v, "row %d chan %d", i, j)
			default:
				assert.Zero(t, v, "row %d chan %d", i, j)
			}
		}
	}
}

func TestAddConstantSignalNarrowBoxHitsNearestChannel(t *testing.T) {
	f := testFrame(t, Params{Fchans: 16, Tchans: 2, Df: 1, Dt: 1, Fch1: 100})
	require.NoError(t, f.AddConstantSignal(f.Frequency(3), 0, 1, 0.01, ProfileBox))
	assert.Equal(t, 1.0, f.Row(0)[3])
	assert.Zero(t, f.Row(0)[2])
	assert.Zero(t, f.Row(0)[4])
}

func TestAddConstantSignalDrift(t *testing.T) {
	// Descending frame: a positive drift moves the signal to lower channel indices.
	f := testFrame(t, Params{Fchans: 64, Tchans: 8, Df: 1, Dt: 1, Fch1: 1000})
	start := 40
	require.NoError(t, f.AddConstantSignal(f.Frequency(start), 2, 1, 1, ProfileGaussian))
	for i := 0; i < f.Tchans; i++ {
		assert.Equal(t, start-2*i, argmax(f.Row(i)), "row %d", i)
	}
}

func TestProfiles(t *testing.T) {
	for _, kind := range []string{ProfileGaussian, ProfileLorentzian, ProfileSinc2, ProfileBox} {
		p, err := NewProfile(kind, 4, 1)
		require.NoError(t, err)
		assert.Equal(t, 1.0, p(0), kind)
		assert.Less(t, p(10), p(1), kind)
	}

	g, _ := NewProfile(ProfileGaussian, 4, 1)
	assert.InDelta(t, 0.5, g(2), 1e-9)
	l, _ := NewProfile(ProfileLorentzian, 4, 1)
	assert.InDelta(t, 0.5, l(2), 1e-9)
	s, _ := NewProfile(ProfileSinc2, 4, 1)
	assert.InDelta(t, 0, s(4), 1e-12)

	// Equal gaussian and lorentzian widths of 4 Hz give a combined FWHM of about 6.54 Hz.
	v, err := NewProfile(ProfileVoigt, 4, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1, v(0), 1e-12)
	assert.InDelta(t, 0.5, v(3.2693), 1e-4)
	assert.Less(t, v(10), v(1))
	// Wider than the gaussian, with heavier tails.
	assert.Greater(t, v(6), g(6))
	zero, err := NewProfile(ProfileVoigt, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, zero(0.4))
	assert.Zero(t, zero(1))

	_, err = NewProfile("triangle", 1, 1)
	assert.ErrorIs(t, err, errUnknownProfile)
}

func argmax(row []float64) int {
	idx := 0
	for i, v := range row {
		if v > row[idx] {
			idx = i
		}
	}
	return idx
}
