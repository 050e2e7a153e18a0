package cstack

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v2"
)

func WritePNG(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()
	return png.Encode(writer, img)
}

func WriteTIFF(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()
	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
}

// WriteImage picks the encoder from the filename extension.
func WriteImage(img image.Image, filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		return WriteTIFF(img, filename)
	default:
		return WritePNG(img, filename)
	}
}

/* A layer checkpoint directory holds one PNG per filter plus a
layers.yaml manifest, so a rerun can go straight to blending:

layers:
  - filter: F200W
    file: F200W.png
    wavelength: 1.99
    h: 270
    s: 100
    v: 100
*/

type layerManifestEntry struct {
	Filter     string  `yaml:"filter"`
	File       string  `yaml:"file"`
	Wavelength float64 `yaml:"wavelength"`
	H          float64 `yaml:"h"`
	S          float64 `yaml:"s"`
	V          float64 `yaml:"v"`
}

type layerManifest struct {
	Layers []layerManifestEntry `yaml:"layers"`
}

// ExportLayers checkpoints the stack's colorized layers to a
// directory, preserving layer order and the HSV each layer was
// actually tinted with (including any sampled override values).
func (s *Stack) ExportLayers(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir '%s': %v", dir, err)
	}

	manifest := layerManifest{}
	for _, l := range s.Layers {
		file := l.Filter + ".png"
		if err := WritePNG(l.Image, filepath.Join(dir, file)); err != nil {
			return err
		}
		manifest.Layers = append(manifest.Layers, layerManifestEntry{
			Filter: l.Filter, File: file, Wavelength: l.Wavelength,
			H: l.Hue, S: l.Saturation, V: l.Value,
		})
	}

	contents, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("layer manifest marshal: %v", err)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "layers.yaml"), contents, 0644); err != nil {
		return fmt.Errorf("layer manifest write: %v", err)
	}

	log.Infof("exported %d layers to %s", len(s.Layers), dir)
	return nil
}

// LoadLayers reads a checkpoint directory back into layers, in
// manifest order, ready for ComposeLayers.
func LoadLayers(dir string) ([]Layer, error) {
	contents, err := ioutil.ReadFile(filepath.Join(dir, "layers.yaml"))
	if err != nil {
		return nil, fmt.Errorf("layer manifest read: %v", err)
	}
	manifest := layerManifest{}
	if err := yaml.Unmarshal(contents, &manifest); err != nil {
		return nil, fmt.Errorf("layer manifest parse: %v", err)
	}

	layers := []Layer{}
	for _, entry := range manifest.Layers {
		reader, err := os.Open(filepath.Join(dir, entry.File))
		if err != nil {
			return nil, fmt.Errorf("open+r layer '%s': %v", entry.File, err)
		}
		img, err := png.Decode(reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("png loading '%s': %v", entry.File, err)
		}

		nrgba := image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)

		layers = append(layers, Layer{
			Filter: entry.Filter, Wavelength: entry.Wavelength,
			Hue: entry.H, Saturation: entry.S, Value: entry.V,
			Image: nrgba,
		})
	}

	log.Infof("loaded %d layers from %s", len(layers), dir)
	return layers, nil
}

// DumpPreviews writes captioned previews of each band's stretched
// pixels and each colorized layer, for eyeballing what each stage
// did to each filter.
func (s *Stack) DumpPreviews(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir '%s': %v", dir, err)
	}

	for i, b := range s.Bands {
		name := filepath.Join(dir, fmt.Sprintf("band-%02d-%s.png", i, b.Filter))
		if err := b.Pixels.ToImg(fmt.Sprintf("%s %.2fum stretched", b.Filter, b.Wavelength), name); err != nil {
			return err
		}
	}

	for i, l := range s.Layers {
		dc := gg.NewContextForImage(l.Image)
		dc.SetRGB(1, 1, 1)
		dc.DrawString(fmt.Sprintf("%s hsv(%.0f,%.0f,%.0f)", l.Filter, l.Hue, l.Saturation, l.Value), 10, 20)
		name := filepath.Join(dir, fmt.Sprintf("layer-%02d-%s.png", i, l.Filter))
		if err := dc.SavePNG(name); err != nil {
			return err
		}
	}

	return nil
}
