// Package frame models a dynamic spectrum (time x frequency) and the
// synthetic noise and signals that can be added to it.
package frame

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const defaultSourceName = "synthetic"

// Params describes the geometry of a frame.
type Params struct {
	Fchans int
	Tchans int
	// Df is the channel width in Hz.
	Df float64
	// Dt is the sampling time in seconds.
	Dt float64
	// Fch1 is the frequency of channel 0 in Hz.
	Fch1 float64
	// Ascending orders channels by increasing frequency. The default puts
	// the highest frequency first, matching a negative foff in SIGPROC files.
	Ascending bool
	// TStart is the start time as MJD.
	TStart     float64
	SourceName string
}

type Frame struct {
	Params

	data *mat.Dense
}

// New allocates a zeroed frame.
func New(p Params) (*Frame, error) {
	switch {
	case p.Fchans <= 0:
		return nil, fmt.Errorf("fchans must be positive, got %d", p.Fchans)
	case p.Tchans <= 0:
		return nil, fmt.Errorf("tchans must be positive, got %d", p.Tchans)
	case !(p.Df > 0) || math.IsInf(p.Df, 0):
		return nil, fmt.Errorf("df must be positive and finite, got %g", p.Df)
	case !(p.Dt > 0) || math.IsInf(p.Dt, 0):
		return nil, fmt.Errorf("dt must be positive and finite, got %g", p.Dt)
	}
	if p.SourceName == "" {
		p.SourceName = defaultSourceName
	}
	return &Frame{
		Params: p,
		data:   mat.NewDense(p.Tchans, p.Fchans, nil),
	}, nil
}

// Data exposes the underlying tchans x fchans matrix.
func (f *Frame) Data() *mat.Dense {
	return f.data
}

// Row returns spectrum i. The slice aliases the frame data.
func (f *Frame) Row(i int) []float64 {
	return f.data.RawRowView(i)
}

// Frequency returns the frequency in Hz of channel i.
func (f *Frame) Frequency(i int) float64 {
	if f.Ascending {
		return f.Fch1 + float64(i)*f.Df
	}
	return f.Fch1 - float64(i)*f.Df
}

// Index returns the channel closest to freq. It may lie outside the frame.
func (f *Frame) Index(freq float64) int {
	if f.Ascending {
		return int(math.Round((freq - f.Fch1) / f.Df))
	}
	return int(math.Round((f.Fch1 - freq) / f.Df))
}

// Time returns the offset in seconds of spectrum i from the frame start.
func (f *Frame) Time(i int) float64 {
	return float64(i) * f.Dt
}

// Bandwidth returns the frequency span covered by all channels in Hz.
func (f *Frame) Bandwidth() float64 {
	return float64(f.Fchans) * f.Df
}

// Duration returns the observation length in seconds.
func (f *Frame) Duration() float64 {
	return float64(f.Tchans) * f.Dt
}

// NoiseStats returns mean and standard deviation over all pixels.
func (f *Frame) NoiseStats() (mean, std float64) {
	return stat.MeanStdDev(f.data.RawMatrix().Data, nil)
}

// Intensity converts a per-pixel SNR into the frame's intensity scale so that
// a signal integrated over all spectra reaches the requested SNR. Frames
// without measurable noise use a reference std of 1.
func (f *Frame) Intensity(snr float64) float64 {
	_, std := f.NoiseStats()
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return snr * std / math.Sqrt(float64(f.Tchans))
}

var errUnknownProfile = errors.New("unknown frequency profile")
