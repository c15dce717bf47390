package generator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hb9tf/filgen/config"
	"github.com/hb9tf/filgen/frame"
	"github.com/hb9tf/filgen/sampler"
	"github.com/hb9tf/filgen/synth"
)

var (
	testFrame = config.Frame{
		Fchans: 1024, Tchans: 16, Df: 1, Dt: 1, Fch1: 1000,
		NoiseMean: 0, NoiseStd: 1, NoiseType: "chi2",
	}
	testSignal = config.Signal{
		Type:     "constant",
		LevelMin: 10, LevelMax: 10,
		WidthMin: 5, WidthMax: 5,
	}
)

// fakeSynth records calls and writes empty files.
type fakeSynth struct {
	built     int
	noise     []string
	injected  []sampler.Params
	chans     []int
	saved     []string
	failSave  int // index of the Save call that fails, -1 for none
	saveCalls int
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) BuildFrame(cfg config.Frame) (*frame.Frame, error) {
	f.built++
	return frame.New(frame.Params{Fchans: cfg.Fchans, Tchans: 1, Df: cfg.Df, Dt: cfg.Dt, Fch1: cfg.Fch1 * 1e6})
}

func (f *fakeSynth) AddNoise(_ *frame.Frame, _, _ float64, noiseType string) error {
	f.noise = append(f.noise, noiseType)
	return nil
}

func (f *fakeSynth) InjectSignal(fr *frame.Frame, p sampler.Params, startChan int) (*synth.Injection, error) {
	f.injected = append(f.injected, p)
	f.chans = append(f.chans, startChan)
	return &synth.Injection{StartChan: startChan, StartFreq: fr.Frequency(startChan), Intensity: p.Level}, nil
}

func (f *fakeSynth) Save(_ *frame.Frame, path string) error {
	defer func() { f.saveCalls++ }()
	if f.saveCalls == f.failSave {
		return errors.New("disk full")
	}
	f.saved = append(f.saved, path)
	return os.WriteFile(path, nil, 0o644)
}

type fakePlotter struct {
	paths []string
}

func (p *fakePlotter) Plot(_ *frame.Frame, path string) error {
	p.paths = append(p.paths, path)
	return nil
}

func newGenerator(t *testing.T, s synth.Synthesizer, out io.Writer) *Generator {
	t.Helper()
	r := rand.New(rand.NewPCG(11, 12))
	return &Generator{
		Synth:      s,
		Sampler:    sampler.New(r),
		Rand:       r,
		OutputDir:  t.TempDir(),
		Out:        out,
		Identifier: "test-run",
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestGenerateWritesNamedFiles(t *testing.T) {
	fake := &fakeSynth{failSave: -1}
	out := &bytes.Buffer{}
	g := newGenerator(t, fake, out)

	require.NoError(t, g.Generate(context.Background(), testFrame, testSignal, 3, nil))

	assert.Equal(t, []string{"synthetic_0.fil", "synthetic_1.fil", "synthetic_2.fil"}, listDir(t, g.OutputDir))
	assert.Equal(t, 3, fake.built)
	assert.Equal(t, []string{"chi2", "chi2", "chi2"}, fake.noise)
	for _, p := range fake.injected {
		assert.Equal(t, sampler.Params{Type: "constant", Drift: 0, Level: 10, Width: 5}, p)
	}

	lines := regexp.MustCompile(`Starting channel number: (\d+)\n`).FindAllStringSubmatch(out.String(), -1)
	require.Len(t, lines, 3)
	for i, l := range lines {
		ch, err := strconv.Atoi(l[1])
		require.NoError(t, err)
		assert.Equal(t, fake.chans[i], ch)
	}
}

func TestGenerateZeroFiles(t *testing.T) {
	fake := &fakeSynth{failSave: -1}
	g := newGenerator(t, fake, &bytes.Buffer{})
	records := make(chan Record, 1)

	require.NoError(t, g.Generate(context.Background(), testFrame, testSignal, 0, records))

	assert.Empty(t, listDir(t, g.OutputDir))
	assert.Zero(t, fake.built)
	_, open := <-records
	assert.False(t, open, "records channel should be closed")
}

func TestGenerateNegativeCount(t *testing.T) {
	g := newGenerator(t, &fakeSynth{failSave: -1}, &bytes.Buffer{})
	assert.Error(t, g.Generate(context.Background(), testFrame, testSignal, -1, nil))
}

func TestGenerateStartChannelInRange(t *testing.T) {
	fake := &fakeSynth{failSave: -1}
	// No Out: diagnostics are discarded.
	g := newGenerator(t, fake, nil)
	small := testFrame
	small.Fchans = 3

	require.NoError(t, g.Generate(context.Background(), small, testSignal, 200, nil))
	seen := map[int]bool{}
	for _, c := range fake.chans {
		if c < 0 || c >= small.Fchans {
			t.Fatalf("start channel %d outside [0, %d)", c, small.Fchans)
		}
		seen[c] = true
	}
	assert.Len(t, seen, 3, "all channels should be drawn eventually")
}

func TestGenerateAbortsOnFailure(t *testing.T) {
	fake := &fakeSynth{failSave: 2}
	g := newGenerator(t, fake, &bytes.Buffer{})

	err := g.Generate(context.Background(), testFrame, testSignal, 5, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	// Files written before the failure stay, nothing after it is attempted.
	assert.Equal(t, []string{"synthetic_0.fil", "synthetic_1.fil"}, listDir(t, g.OutputDir))
	assert.Equal(t, 3, fake.built)
}

func TestGenerateEmitsRecords(t *testing.T) {
	fake := &fakeSynth{failSave: -1}
	plotter := &fakePlotter{}
	g := newGenerator(t, fake, &bytes.Buffer{})
	g.Plotter = plotter

	records := make(chan Record, 10)
	require.NoError(t, g.Generate(context.Background(), testFrame, testSignal, 2, records))

	var got []Record
	for r := range records {
		got = append(got, r)
	}
	require.Len(t, got, 2)
	for i, r := range got {
		assert.Equal(t, "test-run", r.Identifier)
		assert.Equal(t, "fake", r.Source)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, filepath.Join(g.OutputDir, FileName(i)), r.Path)
		assert.Equal(t, fake.chans[i], r.StartChan)
		assert.Equal(t, 1000e6-float64(r.StartChan), r.StartFreq)
		assert.Equal(t, 10.0, r.Level)
		assert.Equal(t, 5.0, r.Width)
		assert.Equal(t, 1024, r.Fchans)
	}
	assert.Equal(t, []string{
		filepath.Join(g.OutputDir, "synthetic_0.png"),
		filepath.Join(g.OutputDir, "synthetic_1.png"),
	}, plotter.paths)
}

func TestGenerateCancelled(t *testing.T) {
	g := newGenerator(t, &fakeSynth{failSave: -1}, &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Generate(ctx, testFrame, testSignal, 3, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listDir(t, g.OutputDir))
}
