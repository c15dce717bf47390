package synth

import (
	"github.com/hb9tf/filgen/config"
	"github.com/hb9tf/filgen/frame"
	"github.com/hb9tf/filgen/sampler"
)

// Injection describes where and how strong a signal was injected.
type Injection struct {
	StartChan int
	// StartFreq is the frequency of StartChan in Hz.
	StartFreq float64
	// Intensity is the signal level in frame units derived from the SNR.
	Intensity float64
}

// Synthesizer builds frames, fills them with noise and a signal and persists them.
type Synthesizer interface {
	Name() string
	BuildFrame(cfg config.Frame) (*frame.Frame, error)
	AddNoise(f *frame.Frame, mean, std float64, noiseType string) error
	InjectSignal(f *frame.Frame, p sampler.Params, startChan int) (*Injection, error)
	Save(f *frame.Frame, path string) error
}
