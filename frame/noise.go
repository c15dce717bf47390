package frame

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	NoiseNormal   = "normal"
	NoiseGaussian = "gaussian"
	NoiseChi2     = "chi2"
)

// AddNoise adds background noise to every pixel.
//
// normal/gaussian draws N(mean, std). chi2 models the power of integrated
// complex voltages: mean * X/k with X ~ chi2(k) and k twice the number of
// spectra averaged per pixel (round(df*dt), at least 1). std is unused for
// chi2 since k fixes the spread.
func (f *Frame) AddNoise(mean, std float64, noiseType string, src rand.Source) error {
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return fmt.Errorf("noise mean must be finite, got %g", mean)
	}
	var draw func() float64
	switch strings.ToLower(noiseType) {
	case NoiseNormal, NoiseGaussian:
		if !(std >= 0) || math.IsInf(std, 0) {
			return fmt.Errorf("noise std must be finite and not negative, got %g", std)
		}
		if std == 0 {
			draw = func() float64 { return mean }
			break
		}
		draw = distuv.Normal{Mu: mean, Sigma: std, Src: src}.Rand
	case NoiseChi2:
		k := chi2DegreesOfFreedom(f.Df, f.Dt)
		dist := distuv.ChiSquared{K: k, Src: src}
		draw = func() float64 { return mean * dist.Rand() / k }
	default:
		return fmt.Errorf("unsupported noise type %q", noiseType)
	}

	raw := f.data.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range row {
			row[j] += draw()
		}
	}
	return nil
}

func chi2DegreesOfFreedom(df, dt float64) float64 {
	return 2 * math.Max(1, math.Round(df*dt))
}
