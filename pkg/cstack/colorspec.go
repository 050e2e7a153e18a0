package cstack

import (
	"fmt"
	"io/ioutil"
	"math/rand"

	"gopkg.in/yaml.v2"
)

/* A color file assigns explicit HSV colors to filters, overriding the
wavelength-derived defaults. Each component is either a fixed number
or a [low, high] range to sample from:

colors:
  F444W:
    h: 15
    s: [60, 90]
    v: 100
  F200W:
    h: [200, 240]
    s: 80
    v: 100
*/

// A ColorValue is one HSV component from a color file: either a fixed
// number or a range. Ranges are sampled exactly once, when the
// configuration is finalized - never mid-pipeline.
type ColorValue struct {
	Lo, Hi  float64
	IsRange bool
}

func Fixed(v float64) ColorValue      { return ColorValue{Lo: v, Hi: v} }
func Range(lo, hi float64) ColorValue { return ColorValue{Lo: lo, Hi: hi, IsRange: true} }

func (cv *ColorValue) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var fixed float64
	if err := unmarshal(&fixed); err == nil {
		*cv = Fixed(fixed)
		return nil
	}

	var rng []float64
	if err := unmarshal(&rng); err != nil {
		return err
	}
	if len(rng) != 2 || rng[1] < rng[0] {
		return fmt.Errorf("color range must be [low, high], got %v", rng)
	}
	*cv = Range(rng[0], rng[1])
	return nil
}

// Resolve samples the component down to a concrete number.
func (cv ColorValue) Resolve(rnd *rand.Rand) float64 {
	if !cv.IsRange {
		return cv.Lo
	}
	return cv.Lo + rnd.Float64()*(cv.Hi-cv.Lo)
}

// A ColorSpec is a full HSV override for one filter.
type ColorSpec struct {
	H ColorValue `yaml:"h"`
	S ColorValue `yaml:"s"`
	V ColorValue `yaml:"v"`
}

func (cs ColorSpec) Resolve(rnd *rand.Rand) HSV {
	return HSV{H: cs.H.Resolve(rnd), S: cs.S.Resolve(rnd), V: cs.V.Resolve(rnd)}
}

// LoadColorSpecs reads a standalone color file (the `colors:` mapping,
// same shape as the section embedded in a config file).
func LoadColorSpecs(filename string) (map[string]ColorSpec, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("color file read %s: %v", filename, err)
	}

	var wrapper struct {
		Colors map[string]ColorSpec `yaml:"colors"`
	}
	if err := yaml.Unmarshal(contents, &wrapper); err != nil {
		return nil, fmt.Errorf("color file parse %s: %v", filename, err)
	}
	return wrapper.Colors, nil
}
