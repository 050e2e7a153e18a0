package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/awray/chromastack/pkg/cstack"
)

var (
	fOutputFilename string
	fLowPercentile  float64
	fHighPercentile float64
	fGamma          float64
	fLogStretch     bool
	fMinHue         float64
	fMaxHue         float64
	fReference      string
	fInterpOrder    int
	fSliceRows      int
	fWorkers        int
	fColorFile      string
	fLayerDir       string
	fPreviewDir     string
	fVerbose        bool
)

func init() {
	flag.StringVar(&fOutputFilename, "o", "", "name of output composite image (.png or .tif)")
	flag.Float64Var(&fLowPercentile, "low", -1, "low percentile clip bound")
	flag.Float64Var(&fHighPercentile, "high", -1, "high percentile clip bound")
	flag.Float64Var(&fGamma, "gamma", -1, "power-law stretch exponent (<1 boosts faint features)")
	flag.BoolVar(&fLogStretch, "log", false, "use logarithmic stretch instead of power law")
	flag.Float64Var(&fMinHue, "minhue", -1, "hue assigned to the longest wavelength, degrees")
	flag.Float64Var(&fMaxHue, "maxhue", -1, "hue assigned to the shortest wavelength, degrees")
	flag.StringVar(&fReference, "ref", "", "filter whose grid all bands align to (default: first band)")
	flag.IntVar(&fInterpOrder, "order", -1, "interpolation order: 0 nearest, 1 bilinear")
	flag.IntVar(&fSliceRows, "slice", -1, "rows per contrast-stretch slice (0: whole image)")
	flag.IntVar(&fWorkers, "j", 0, "parallel band workers")
	flag.StringVar(&fColorFile, "colors", "", "YAML color override file")
	flag.StringVar(&fLayerDir, "layers", "", "layer checkpoint dir; reused if it holds a manifest")
	flag.StringVar(&fPreviewDir, "preview", "", "dump per-stage previews into this dir")
	flag.BoolVar(&fVerbose, "v", false, "debug logging")
	flag.Parse()

	if fVerbose {
		log.SetLevel(log.DebugLevel)
	}
}

func main() {
	s := cstack.NewStack()

	// A rerun against an existing checkpoint skips straight to the blend.
	if fLayerDir != "" {
		if layers, err := cstack.LoadLayers(fLayerDir); err == nil {
			s.Layers = layers
			applyFlags(&s)
			if err := s.ComposeLayers(); err != nil {
				log.Fatal(err)
			}
			publish(&s)
			return
		}
	}

	if err := s.Load(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	applyFlags(&s)

	if fColorFile != "" {
		colors, err := cstack.LoadColorSpecs(fColorFile)
		if err != nil {
			log.Fatal(err)
		}
		for filter, spec := range colors {
			s.Colors[filter] = spec
		}
	}

	if err := s.FinalizeConfiguration(); err != nil {
		log.Fatal(err)
	}

	if err := s.Compose(); err != nil {
		log.Fatal(err)
	}

	if fLayerDir != "" {
		if err := s.ExportLayers(fLayerDir); err != nil {
			log.Fatal(err)
		}
	}
	if fPreviewDir != "" {
		if err := s.DumpPreviews(fPreviewDir); err != nil {
			log.Fatal(err)
		}
	}

	publish(&s)
}

// Command line args override the config file, where given.
func applyFlags(s *cstack.Stack) {
	r := &s.Rendering

	if fOutputFilename != "" {
		r.OutputFilename = fOutputFilename
	}
	if fLowPercentile >= 0 {
		r.LowPercentile = fLowPercentile
	}
	if fHighPercentile >= 0 {
		r.HighPercentile = fHighPercentile
	}
	if fGamma > 0 {
		r.Gamma = fGamma
	}
	if fMinHue >= 0 {
		r.MinHue = fMinHue
	}
	if fMaxHue >= 0 {
		r.MaxHue = fMaxHue
	}
	if fReference != "" {
		r.ReferenceFilter = fReference
	}
	if fInterpOrder >= 0 {
		r.InterpolationOrder = fInterpOrder
	}
	if fSliceRows >= 0 {
		r.SliceRows = fSliceRows
	}
	if fWorkers > 0 {
		r.Workers = fWorkers
	}
	r.LogStretch = r.LogStretch || fLogStretch
}

func publish(s *cstack.Stack) {
	if err := cstack.WriteImage(s.Composite, s.Rendering.OutputFilename); err != nil {
		log.Fatal(err)
	}
	log.Infof("composite written to '%s'", s.Rendering.OutputFilename)
}
