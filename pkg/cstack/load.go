package cstack

import (
	"fmt"
	"image"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	hdr "github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/rwcarlsen/goexif/exif"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v2"

	"github.com/awray/chromastack/pkg/fgrid"
)

/* Every band pixel file is paired with a sidecar <file>.meta.yaml
carrying the metadata the pipeline needs but image containers don't:

filter: F200W
wavelength: 1.99
wcs:
  naxis1: 2048
  naxis2: 2048
  crpix1: 1024
  crpix2: 1024
  crval1: 83.8221
  crval2: -5.3911
  cd: [-1.7e-5, 0, 0, 1.7e-5]
*/

type bandMeta struct {
	Filter     string  `yaml:"filter"`
	Wavelength float64 `yaml:"wavelength"`
	Grid       WCS     `yaml:"wcs"`
}

// Load walks its arguments - files or directories - and loads
// whatever it recognizes: .tif/.tiff and .hdr band pixel files (with
// their metadata sidecars), and .yaml configuration.
func (s *Stack) Load(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			contents, err := ioutil.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := s.Load(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default:
			if err := s.LoadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %v", arg, err)
			}
		}
	}

	return nil
}

func (s *Stack) LoadFile(filename string) error {
	if strings.HasSuffix(filename, ".meta.yaml") {
		return nil // sidecar; picked up alongside its pixel file
	}

	switch strings.ToLower(filepath.Ext(filename)) {

	case ".tif", ".tiff":
		b, err := LoadTIFFBand(filename)
		if err != nil {
			return fmt.Errorf("loading %s as TIFF band failed: %v", filename, err)
		}
		s.Add(b)

	case ".hdr":
		b, err := LoadHDRBand(filename)
		if err != nil {
			return fmt.Errorf("loading %s as Radiance band failed: %v", filename, err)
		}
		s.Add(b)

	case ".yaml":
		cfg, err := LoadConfiguration(filename)
		if err != nil {
			return fmt.Errorf("loading %s as config YAML failed: %v", filename, err)
		}
		s.Configuration = cfg
		log.Infof("loaded base configuration from %s", filename)
	}

	return nil
}

// LoadTIFFBand reads a (typically 16-bit grayscale) TIFF of linear
// intensities plus its metadata sidecar. Capture time from any EXIF
// block is logged for provenance, but nothing scientific lives there.
func LoadTIFFBand(filename string) (Band, error) {
	meta, err := loadBandMeta(filename)
	if err != nil {
		return Band{}, err
	}

	if reader, err := os.Open(filename); err == nil {
		if ex, err := exif.Decode(reader); err == nil {
			if tm, err := ex.DateTime(); err == nil {
				log.Debugf("band %s captured %s", meta.Filter, tm)
			}
		}
		reader.Close()
	}

	reader, err := os.Open(filename)
	if err != nil {
		return Band{}, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := tiff.Decode(reader)
	if err != nil {
		return Band{}, fmt.Errorf("tiff loading '%s': %v", filename, err)
	}

	return newBand(filename, meta, img, func(x, y int) float64 {
		r, _, _, _ := img.At(x, y).RGBA()
		return float64(r)
	})
}

// LoadHDRBand reads a Radiance RGBE file, for inputs whose linear
// float range doesn't survive quantization to 16-bit TIFF.
func LoadHDRBand(filename string) (Band, error) {
	meta, err := loadBandMeta(filename)
	if err != nil {
		return Band{}, err
	}

	reader, err := os.Open(filename)
	if err != nil {
		return Band{}, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := rgbe.Decode(reader)
	if err != nil {
		return Band{}, fmt.Errorf("rgbe loading '%s': %v", filename, err)
	}
	hdrImg, ok := img.(hdr.Image)
	if !ok {
		return Band{}, fmt.Errorf("'%s' did not decode as an HDR image", filename)
	}

	return newBand(filename, meta, img, func(x, y int) float64 {
		r, g, b, _ := hdrImg.HDRAt(x, y).HDRRGBA()
		return (r + g + b) / 3.0
	})
}

func loadBandMeta(pixelFilename string) (bandMeta, error) {
	sidecar := pixelFilename + ".meta.yaml"
	meta := bandMeta{}

	contents, err := ioutil.ReadFile(sidecar)
	if err != nil {
		return meta, fmt.Errorf("band sidecar read %s: %v", sidecar, err)
	}
	if err := yaml.Unmarshal(contents, &meta); err != nil {
		return meta, fmt.Errorf("band sidecar parse %s: %v", sidecar, err)
	}
	return meta, nil
}

func newBand(filename string, meta bandMeta, img image.Image, sample func(x, y int) float64) (Band, error) {
	bounds := img.Bounds()
	pixels := fgrid.New(bounds.Dx(), bounds.Dy())
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			pixels.Set(x, y, sample(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	b := Band{
		LoadFilename: filename,
		Filter:       meta.Filter,
		Wavelength:   meta.Wavelength,
		Grid:         meta.Grid,
		Pixels:       pixels,
	}

	// The loader guarantees the core never sees a band with a bad
	// wavelength or a grid that disagrees with the pixel shape.
	if err := b.Validate(); err != nil {
		return Band{}, err
	}

	log.Infof("loaded %s", b)
	return b, nil
}
