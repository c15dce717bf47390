package generator

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/filgen/config"
	"github.com/hb9tf/filgen/frame"
	"github.com/hb9tf/filgen/sampler"
	"github.com/hb9tf/filgen/synth"
)

// Record is the ground truth of one generated file.
type Record struct {
	// Metadata
	Identifier string
	Source     string
	Index      int
	Path       string
	Created    time.Time

	// Injected signal
	Type      string
	StartChan int
	StartFreq float64 // Hz
	Drift     float64 // Hz/s
	Level     float64 // SNR
	Intensity float64
	Width     float64 // Hz

	// Frame geometry
	Fchans int
	Tchans int
	Df     float64 // Hz
	Dt     float64 // s
	Fch1   float64 // MHz
}

// Plotter renders a frame to an image file.
type Plotter interface {
	Plot(f *frame.Frame, path string) error
}

type Generator struct {
	Synth   synth.Synthesizer
	Sampler *sampler.Sampler
	// Rand picks the injection channel.
	Rand *rand.Rand
	// OutputDir must exist.
	OutputDir string
	// Plotter is optional. When set a PNG is rendered next to every file.
	Plotter Plotter
	// Out receives the per-file diagnostics. nil discards them.
	Out        io.Writer
	Identifier string
}

// FileName returns the name of the i-th output file.
func FileName(i int) string {
	return fmt.Sprintf("synthetic_%d.fil", i)
}

// PlotName returns the name of the i-th rendered waterfall.
func PlotName(i int) string {
	return fmt.Sprintf("synthetic_%d.png", i)
}

// Generate writes n files one after the other. The first failure ends the
// run; files written before it are kept. records, if not nil, receives one
// Record per written file and is closed on return.
func (g *Generator) Generate(ctx context.Context, frameCfg config.Frame, signalCfg config.Signal, n int, records chan<- Record) error {
	if records != nil {
		defer close(records)
	}
	if n < 0 {
		return fmt.Errorf("number of files must not be negative, got %d", n)
	}
	out := g.Out
	if out == nil {
		out = io.Discard
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stopped after %d of %d files: %w", i, n, err)
		}
		rec, err := g.generateOne(frameCfg, signalCfg, i, out)
		if err != nil {
			return fmt.Errorf("file %d: %w", i, err)
		}
		glog.V(1).Infof("wrote %s (%d/%d)", rec.Path, i+1, n)
		if records == nil {
			continue
		}
		select {
		case records <- *rec:
		case <-ctx.Done():
			return fmt.Errorf("stopped after %d of %d files: %w", i+1, n, ctx.Err())
		}
	}
	glog.Infof("generated %d files in %s", n, g.OutputDir)
	return nil
}

func (g *Generator) generateOne(frameCfg config.Frame, signalCfg config.Signal, i int, out io.Writer) (*Record, error) {
	params := g.Sampler.Sample(signalCfg)

	f, err := g.Synth.BuildFrame(frameCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to build frame: %w", err)
	}
	if err := g.Synth.AddNoise(f, frameCfg.NoiseMean, frameCfg.NoiseStd, frameCfg.NoiseType); err != nil {
		return nil, fmt.Errorf("unable to add noise: %w", err)
	}

	startChan := g.startChannel(frameCfg.Fchans)
	fmt.Fprintf(out, "Starting channel number: %d\n", startChan)

	inj, err := g.Synth.InjectSignal(f, params, startChan)
	if err != nil {
		return nil, fmt.Errorf("unable to inject signal: %w", err)
	}

	path := filepath.Join(g.OutputDir, FileName(i))
	if err := g.Synth.Save(f, path); err != nil {
		return nil, fmt.Errorf("unable to save %q: %w", path, err)
	}
	if g.Plotter != nil {
		plotPath := filepath.Join(g.OutputDir, PlotName(i))
		if err := g.Plotter.Plot(f, plotPath); err != nil {
			return nil, fmt.Errorf("unable to plot %q: %w", plotPath, err)
		}
	}

	return &Record{
		Identifier: g.Identifier,
		Source:     g.Synth.Name(),
		Index:      i,
		Path:       path,
		Created:    time.Now(),
		Type:       params.Type,
		StartChan:  inj.StartChan,
		StartFreq:  inj.StartFreq,
		Drift:      params.Drift,
		Level:      params.Level,
		Intensity:  inj.Intensity,
		Width:      params.Width,
		Fchans:     frameCfg.Fchans,
		Tchans:     frameCfg.Tchans,
		Df:         frameCfg.Df,
		Dt:         frameCfg.Dt,
		Fch1:       frameCfg.Fch1,
	}, nil
}

func (g *Generator) startChannel(fchans int) int {
	if g.Rand == nil {
		return rand.IntN(fchans)
	}
	return g.Rand.IntN(fchans)
}
