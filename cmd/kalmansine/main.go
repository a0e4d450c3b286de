// Command kalmansine smooths a noisy sine wave with a one-dimensional
// Kalman filter and plots the result against the clean signal.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/banshee-data/cvhacks/internal/config"
	"github.com/banshee-data/cvhacks/internal/kalman"
	"github.com/banshee-data/cvhacks/internal/monitoring"
	"github.com/banshee-data/cvhacks/internal/report"
	"github.com/banshee-data/cvhacks/internal/version"
)

var (
	out         = flag.String("out", "", "Output file (.png or .html); defaults to the config plot output")
	format      = flag.String("format", "", "Output format: png or html; inferred from -out when empty")
	noise       = flag.Float64("noise", defaultNoise, "Uniform noise magnitude")
	seed        = flag.Uint64("seed", 1, "Random seed for the noise")
	configFile  = flag.String("config", "", "Path to a demo config JSON file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("kalmansine", version.String())
		return
	}

	cfg, err := config.LoadOrEmpty(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	path := *out
	if path == "" {
		path = cfg.GetPlotOutput()
	}
	var f report.Format
	switch {
	case *format != "":
		f, err = report.ParseFormat(*format)
	case *out != "":
		f, err = report.FormatForPath(path)
	default:
		f, err = report.ParseFormat(cfg.GetPlotFormat())
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	filter, err := kalman.NewFilter1D(cfg.GetKalmanConfig())
	if err != nil {
		log.Fatalf("failed to create filter: %v", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	chart, err := smooth(filter, rng, *noise)
	if err != nil {
		log.Fatalf("smoothing failed: %v", err)
	}

	if err := report.Write(path, f, chart, nil); err != nil {
		log.Fatalf("failed to write %s: %v", path, err)
	}
	monitoring.Logf("wrote %s (%s)", path, f)
}
