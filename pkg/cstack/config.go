package cstack

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"time"

	"gopkg.in/yaml.v2"
)

/* Example config file ...

rendering:
  output_filename: out.png
  low_percentile: 0.1
  high_percentile: 99.9
  gamma: 0.5
  min_hue: 0
  max_hue: 270
  reference_filter: F200W
  interpolation_order: 1
  slice_size: 512
  workers: 4

colors:
  F444W:
    h: [0, 30]
    s: 80
    v: 100
*/

type RenderOptions struct {
	OutputFilename string `yaml:"output_filename"`

	LowPercentile  float64 `yaml:"low_percentile"`
	HighPercentile float64 `yaml:"high_percentile"`
	Gamma          float64 `yaml:"gamma"`
	LogStretch     bool    `yaml:"log_stretch"`

	MinHue float64 `yaml:"min_hue"`
	MaxHue float64 `yaml:"max_hue"`

	ReferenceFilter    string `yaml:"reference_filter"`
	InterpolationOrder int    `yaml:"interpolation_order"`
	SliceRows          int    `yaml:"slice_size"`

	Workers  int    `yaml:"workers"`
	LayerDir string `yaml:"layer_dir"`
}

type Configuration struct {
	Rendering RenderOptions        `yaml:"rendering"`
	Colors    map[string]ColorSpec `yaml:"colors"`

	// Concrete per-filter colors, sampled from Colors exactly once in
	// FinalizeConfiguration.
	ResolvedColors map[string]HSV `yaml:"-"`
}

func NewConfiguration() Configuration {
	return Configuration{
		Rendering: RenderOptions{
			OutputFilename:     "out.png",
			LowPercentile:      0.1,
			HighPercentile:     99.9,
			Gamma:              0.5,
			MinHue:             0,
			MaxHue:             270,
			InterpolationOrder: InterpBilinear,
			Workers:            1,
		},
		Colors: map[string]ColorSpec{},
	}
}

func LoadConfiguration(filename string) (Configuration, error) {
	c := NewConfiguration()

	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("config read %s: %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("config parse %s: %v", filename, err)
	}
	return c, nil
}

// FinalizeConfiguration sanity-checks the options and resolves every
// color override down to a concrete HSV. Call it once, after all
// config sources (file, flags, color files) have been merged; the
// sampled range values must not change for the rest of the run.
func (c *Configuration) FinalizeConfiguration() error {
	r := &c.Rendering

	if r.LowPercentile < 0 || r.HighPercentile > 100 || r.LowPercentile >= r.HighPercentile {
		return fmt.Errorf("percentile bounds (%g, %g): %w", r.LowPercentile, r.HighPercentile, ErrConfig)
	}
	if r.Gamma <= 0 {
		return fmt.Errorf("gamma %g must be positive: %w", r.Gamma, ErrConfig)
	}
	if r.MaxHue <= r.MinHue {
		return fmt.Errorf("hue range (%g, %g): %w", r.MinHue, r.MaxHue, ErrConfig)
	}
	if r.InterpolationOrder != InterpNearest && r.InterpolationOrder != InterpBilinear {
		return fmt.Errorf("interpolation order %d: %w", r.InterpolationOrder, ErrConfig)
	}
	if r.Workers < 1 {
		r.Workers = 1
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	c.ResolvedColors = map[string]HSV{}
	for filter, spec := range c.Colors {
		c.ResolvedColors[filter] = spec.Resolve(rnd)
	}

	return nil
}

func (c Configuration) StretchOptions() StretchOptions {
	return StretchOptions{
		LowPercentile:  c.Rendering.LowPercentile,
		HighPercentile: c.Rendering.HighPercentile,
		Gamma:          c.Rendering.Gamma,
		LogStretch:     c.Rendering.LogStretch,
		SliceRows:      c.Rendering.SliceRows,
	}
}
