package synth

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/filgen/config"
	"github.com/hb9tf/filgen/fil"
	"github.com/hb9tf/filgen/frame"
	"github.com/hb9tf/filgen/sampler"
)

const (
	SourceName = "simulator"

	mjdUnixEpoch = 40587.0
)

// Simulator synthesizes frames in memory and writes them as SIGPROC filterbank files.
type Simulator struct {
	// Src drives the noise generators. nil uses the global generator.
	Src rand.Source
	// Now stamps the start time of new frames. Defaults to time.Now.
	Now func() time.Time
}

func (s *Simulator) Name() string {
	return SourceName
}

func (s *Simulator) BuildFrame(cfg config.Frame) (*frame.Frame, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return frame.New(frame.Params{
		Fchans: cfg.Fchans,
		Tchans: cfg.Tchans,
		Df:     cfg.Df,
		Dt:     cfg.Dt,
		Fch1:   cfg.Fch1 * 1e6,
		TStart: MJD(now()),
	})
}

func (s *Simulator) AddNoise(f *frame.Frame, mean, std float64, noiseType string) error {
	return f.AddNoise(mean, std, noiseType, s.Src)
}

func (s *Simulator) InjectSignal(f *frame.Frame, p sampler.Params, startChan int) (*Injection, error) {
	if startChan < 0 || startChan >= f.Fchans {
		return nil, fmt.Errorf("start channel %d outside [0, %d)", startChan, f.Fchans)
	}
	inj := &Injection{
		StartChan: startChan,
		StartFreq: f.Frequency(startChan),
		Intensity: f.Intensity(p.Level),
	}
	glog.V(2).Infof("injecting %s signal at %.3f Hz: drift=%g Hz/s snr=%g intensity=%g width=%g Hz", p.Type, inj.StartFreq, p.Drift, p.Level, inj.Intensity, p.Width)
	if err := f.AddConstantSignal(inj.StartFreq, p.Drift, inj.Intensity, p.Width, p.Type); err != nil {
		return nil, err
	}
	return inj, nil
}

func (s *Simulator) Save(f *frame.Frame, path string) error {
	foff := f.Df / 1e6
	if !f.Ascending {
		foff = -foff
	}
	h := fil.Header{
		TelescopeID: fil.TelescopeFake,
		MachineID:   fil.MachineFake,
		DataType:    fil.DataTypeFilterbank,
		SourceName:  f.SourceName,
		TStart:      f.TStart,
		TSamp:       f.Dt,
		Fch1:        f.Fch1 / 1e6,
		Foff:        foff,
		NChans:      int32(f.Fchans),
		NIFs:        1,
		NBits:       32,
	}
	rows := make([][]float64, f.Tchans)
	for i := range rows {
		rows[i] = f.Row(i)
	}
	return fil.WriteFile(path, h, rows)
}

// MJD converts t to a modified Julian date.
func MJD(t time.Time) float64 {
	return mjdUnixEpoch + float64(t.UnixNano())/float64(24*time.Hour)
}
