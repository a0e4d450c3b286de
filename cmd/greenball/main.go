// Command greenball tracks a green object in the camera feed and marks its
// centroid.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"

	"gocv.io/x/gocv"

	"github.com/banshee-data/cvhacks/internal/config"
	"github.com/banshee-data/cvhacks/internal/greenball"
	"github.com/banshee-data/cvhacks/internal/monitoring"
	"github.com/banshee-data/cvhacks/internal/version"
)

var (
	camera      = flag.Int("camera", 0, "Camera number")
	threshold   = flag.Int("threshold", greenball.DefaultThreshold, "Greenness threshold (0-255)")
	configFile  = flag.String("config", "", "Path to a demo config JSON file")
	verbose     = flag.Bool("v", false, "Log every centroid")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const escKey = 27

var markerColor = color.RGBA{R: 255, A: 255}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("greenball", version.String())
		return
	}

	cfg, err := config.LoadOrEmpty(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	level := cfg.GetGreenThreshold()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			if *threshold < 0 || *threshold > 255 {
				log.Fatalf("threshold must be between 0 and 255, got %d", *threshold)
			}
			level = uint8(*threshold)
		}
	})
	monitoring.SetVerbose(*verbose)

	capture, err := gocv.OpenVideoCapture(*camera)
	if err != nil {
		log.Fatalf("failed to open camera %d: %v", *camera, err)
	}
	defer capture.Close()

	window := gocv.NewWindow("GreenBallTracker")
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			log.Printf("camera %d stopped delivering frames", *camera)
			return
		}

		img, err := frame.ToImage()
		if err != nil {
			log.Fatalf("convert frame: %v", err)
		}
		if ctr, ok := greenball.Track(img, level); ok {
			monitoring.Debugf("centroid %d,%d", ctr.X, ctr.Y)
			gocv.Circle(&frame, ctr, 10, markerColor, 2)
			gocv.Line(&frame, ctr.Sub(image.Pt(5, 0)), ctr.Add(image.Pt(5, 0)), markerColor, 1)
			gocv.Line(&frame, ctr.Sub(image.Pt(0, 5)), ctr.Add(image.Pt(0, 5)), markerColor, 1)
		}

		window.IMShow(frame)
		if window.WaitKey(1)&0xff == escKey {
			return
		}
	}
}
