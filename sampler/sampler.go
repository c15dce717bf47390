package sampler

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hb9tf/filgen/config"
)

// Params are the parameters of one injected signal.
type Params struct {
	Type  string
	Drift float64 // Hz/s
	Level float64 // SNR
	Width float64 // Hz
}

// Sampler draws signal parameters uniformly from configured ranges.
type Sampler struct {
	src rand.Source
}

// New returns a Sampler drawing from src. A nil src uses the global
// (unseeded) generator.
func New(src rand.Source) *Sampler {
	return &Sampler{src: src}
}

// Sample draws drift, level and width independently. The type is copied as is.
func (s *Sampler) Sample(r config.Signal) Params {
	return Params{
		Type:  r.Type,
		Drift: s.uniform(r.DriftMin, r.DriftMax),
		Level: s.uniform(r.LevelMin, r.LevelMax),
		Width: s.uniform(r.WidthMin, r.WidthMax),
	}
}

func (s *Sampler) uniform(min, max float64) float64 {
	if min == max {
		return min
	}
	return distuv.Uniform{Min: min, Max: max, Src: s.src}.Rand()
}
