package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hb9tf/filgen/frame"
)

var (
	// NoiseTypes lists the accepted frame.noise_type values.
	NoiseTypes = []string{frame.NoiseNormal, frame.NoiseGaussian, frame.NoiseChi2}
	// ProfileTypes lists the accepted signal.type values.
	ProfileTypes = []string{frame.ProfileConstant, frame.ProfileBox, frame.ProfileGaussian, frame.ProfileLorentzian, frame.ProfileSinc2, frame.ProfileVoigt}

	frameKeys  = []string{"fchans", "tchans", "df", "dt", "fch1", "noise_mean", "noise_std", "noise_type"}
	signalKeys = []string{"type", "drift_min", "drift_max", "level_min", "level_max", "width_min", "width_max"}
)

// Frame describes the geometry and noise of every generated frame.
type Frame struct {
	Fchans    int     `yaml:"fchans"`
	Tchans    int     `yaml:"tchans"`
	Df        float64 `yaml:"df"`   // Hz
	Dt        float64 `yaml:"dt"`   // seconds
	Fch1      float64 `yaml:"fch1"` // MHz
	NoiseMean float64 `yaml:"noise_mean"`
	NoiseStd  float64 `yaml:"noise_std"`
	NoiseType string  `yaml:"noise_type"`
}

// Signal holds the ranges injected signal parameters are drawn from.
type Signal struct {
	Type     string  `yaml:"type"`
	DriftMin float64 `yaml:"drift_min"` // Hz/s
	DriftMax float64 `yaml:"drift_max"`
	LevelMin float64 `yaml:"level_min"` // SNR
	LevelMax float64 `yaml:"level_max"`
	WidthMin float64 `yaml:"width_min"` // Hz
	WidthMax float64 `yaml:"width_max"`
}

type Config struct {
	Frame  Frame  `yaml:"frame"`
	Signal Signal `yaml:"signal"`
}

// Load reads and validates the configuration file at path.
// Every failure is a *LoadError.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Reason: NotFound, Err: err}
		}
		return nil, &LoadError{Path: path, Reason: ParseError, Err: err}
	}
	cfg, err := Parse(raw)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document.
func Parse(raw []byte) (*Config, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &LoadError{Reason: ParseError, Err: err}
	}

	cfg := &Config{}
	if err := decodeSection(doc, "frame", frameKeys, &cfg.Frame); err != nil {
		return nil, err
	}
	if err := decodeSection(doc, "signal", signalKeys, &cfg.Signal); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Reason: Invalid, Err: err}
	}
	return cfg, nil
}

func decodeSection(doc map[string]yaml.Node, name string, required []string, out interface{}) error {
	node, ok := doc[name]
	if !ok {
		return &LoadError{Reason: MissingKey, Err: fmt.Errorf("top-level key %q not found", name)}
	}
	var fields map[string]yaml.Node
	if err := node.Decode(&fields); err != nil {
		return &LoadError{Reason: ParseError, Err: fmt.Errorf("section %q: %w", name, err)}
	}
	var missing []string
	for _, k := range required {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &LoadError{Reason: MissingKey, Err: fmt.Errorf("section %q lacks %s", name, strings.Join(missing, ", "))}
	}
	if err := node.Decode(out); err != nil {
		return &LoadError{Reason: ParseError, Err: fmt.Errorf("section %q: %w", name, err)}
	}
	return nil
}

// Validate checks value ranges. Inverted ranges are rejected rather than clamped.
func (c *Config) Validate() error {
	var errs []error
	f := c.Frame
	s := c.Signal
	errs = append(errs,
		checkFinite("frame.df", f.Df),
		checkFinite("frame.dt", f.Dt),
		checkFinite("frame.fch1", f.Fch1),
		checkFinite("frame.noise_mean", f.NoiseMean),
		checkFinite("frame.noise_std", f.NoiseStd),
		checkFinite("signal.drift_min", s.DriftMin),
		checkFinite("signal.drift_max", s.DriftMax),
		checkFinite("signal.level_min", s.LevelMin),
		checkFinite("signal.level_max", s.LevelMax),
		checkFinite("signal.width_min", s.WidthMin),
		checkFinite("signal.width_max", s.WidthMax),
	)
	if f.Fchans <= 0 {
		errs = append(errs, fmt.Errorf("frame.fchans must be positive, got %d", f.Fchans))
	}
	if f.Tchans <= 0 {
		errs = append(errs, fmt.Errorf("frame.tchans must be positive, got %d", f.Tchans))
	}
	if f.Df <= 0 {
		errs = append(errs, fmt.Errorf("frame.df must be positive, got %g", f.Df))
	}
	if f.Dt <= 0 {
		errs = append(errs, fmt.Errorf("frame.dt must be positive, got %g", f.Dt))
	}
	if f.NoiseStd < 0 {
		errs = append(errs, fmt.Errorf("frame.noise_std must not be negative, got %g", f.NoiseStd))
	}
	if !oneOf(f.NoiseType, NoiseTypes) {
		errs = append(errs, fmt.Errorf("frame.noise_type %q is not one of: %s", f.NoiseType, strings.Join(NoiseTypes, ", ")))
	}

	if !oneOf(s.Type, ProfileTypes) {
		errs = append(errs, fmt.Errorf("signal.type %q is not one of: %s", s.Type, strings.Join(ProfileTypes, ", ")))
	}
	errs = append(errs,
		checkRange("drift", s.DriftMin, s.DriftMax),
		checkRange("level", s.LevelMin, s.LevelMax),
		checkRange("width", s.WidthMin, s.WidthMax),
	)
	if s.WidthMin < 0 {
		errs = append(errs, fmt.Errorf("signal.width_min must not be negative, got %g", s.WidthMin))
	}
	return errors.Join(errs...)
}

// checkFinite rejects .nan and .inf, which slip through every ordered comparison.
func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number, got %g", name, v)
	}
	return nil
}

func checkRange(name string, min, max float64) error {
	if min > max {
		return fmt.Errorf("signal.%s_min (%g) is larger than signal.%s_max (%g)", name, min, name, max)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
