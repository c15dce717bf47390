package frame

import (
	"fmt"
	"math"
	"strings"
)

const (
	ProfileConstant   = "constant"
	ProfileBox        = "box"
	ProfileGaussian   = "gaussian"
	ProfileLorentzian = "lorentzian"
	ProfileSinc2      = "sinc2"
	ProfileVoigt      = "voigt"
)

// fwhmToSigma converts a gaussian full width at half maximum to sigma.
var fwhmToSigma = 1 / (2 * math.Sqrt(2*math.Ln2))

// Profile returns the relative intensity of a signal at offset d (Hz) from
// its centre frequency.
type Profile func(d float64) float64

// NewProfile returns the frequency profile named kind with the given width
// in Hz. df is the channel width; a box narrower than one channel is widened
// to one channel so the signal always lights up its nearest channel.
func NewProfile(kind string, width, df float64) (Profile, error) {
	switch strings.ToLower(kind) {
	case ProfileConstant, ProfileBox:
		half := math.Max(width, df) / 2
		return func(d float64) float64 {
			if math.Abs(d) <= half {
				return 1
			}
			return 0
		}, nil
	case ProfileGaussian:
		sigma := width * fwhmToSigma
		if sigma == 0 {
			return impulse(df), nil
		}
		return func(d float64) float64 {
			return math.Exp(-d * d / (2 * sigma * sigma))
		}, nil
	case ProfileLorentzian:
		if width == 0 {
			return impulse(df), nil
		}
		return func(d float64) float64 {
			x := 2 * d / width
			return 1 / (1 + x*x)
		}, nil
	case ProfileSinc2:
		if width == 0 {
			return impulse(df), nil
		}
		return func(d float64) float64 {
			if d == 0 {
				return 1
			}
			x := math.Pi * d / width
			s := math.Sin(x) / x
			return s * s
		}, nil
	case ProfileVoigt:
		if width == 0 {
			return impulse(df), nil
		}
		return pseudoVoigt(width, width), nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownProfile, kind)
}

// pseudoVoigt approximates a Voigt profile with gaussian FWHM fg and
// lorentzian FWHM fl as a peak-normalized mix of both at the combined FWHM
// (Thompson, Cox & Hastings 1987).
func pseudoVoigt(fg, fl float64) Profile {
	fwhm := math.Pow(math.Pow(fg, 5)+
		2.69269*math.Pow(fg, 4)*fl+
		2.42843*math.Pow(fg, 3)*fl*fl+
		4.47163*fg*fg*math.Pow(fl, 3)+
		0.07842*fg*math.Pow(fl, 4)+
		math.Pow(fl, 5), 0.2)
	r := fl / fwhm
	eta := 1.36603*r - 0.47719*r*r + 0.11116*r*r*r
	sigma := fwhm * fwhmToSigma
	return func(d float64) float64 {
		x := 2 * d / fwhm
		return eta/(1+x*x) + (1-eta)*math.Exp(-d*d/(2*sigma*sigma))
	}
}

// impulse lights up only the channel containing the centre frequency.
func impulse(df float64) Profile {
	return func(d float64) float64 {
		if math.Abs(d) <= df/2 {
			return 1
		}
		return 0
	}
}

// AddConstantSignal injects a signal of constant intensity level starting at
// fStart (Hz) and drifting linearly by drift (Hz/s).
func (f *Frame) AddConstantSignal(fStart, drift, level, width float64, profile string) error {
	prof, err := NewProfile(profile, width, f.Df)
	if err != nil {
		return err
	}
	for i := 0; i < f.Tchans; i++ {
		centre := fStart + drift*f.Time(i)
		row := f.Row(i)
		for j := range row {
			if v := prof(f.Frequency(j) - centre); v != 0 {
				row[j] += level * v
			}
		}
	}
	return nil
}
