// Command warpcam shows a camera feed through a tilted virtual camera.
//
// With -image it warps a single still image instead and writes the result
// to -out, which needs no camera or OpenCV window.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/cvhacks/internal/config"
	"github.com/banshee-data/cvhacks/internal/monitoring"
	"github.com/banshee-data/cvhacks/internal/version"
	"github.com/banshee-data/cvhacks/internal/warp"
)

var (
	camera      = flag.Int("camera", 0, "Camera number")
	theta       = flag.Float64("theta", 5, "Rotation about the view axis (degrees)")
	phi         = flag.Float64("phi", 50, "Tilt about the horizontal axis (degrees)")
	gamma       = flag.Float64("gamma", 0, "Rotation about the vertical axis (degrees)")
	scale       = flag.Float64("scale", 1, "Output scale factor")
	fovy        = flag.Float64("fovy", 30, "Vertical field of view (degrees)")
	stillImage  = flag.String("image", "", "Warp this image file instead of the camera feed")
	out         = flag.String("out", "warped.png", "Output path for -image")
	configFile  = flag.String("config", "", "Path to a demo config JSON file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const escKey = 27

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("warpcam", version.String())
		return
	}

	cfg, err := config.LoadOrEmpty(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	pose := poseFromFlags(cfg)
	if err := pose.Validate(); err != nil {
		log.Fatalf("invalid pose: %v", err)
	}

	if *stillImage != "" {
		if err := warpFile(*stillImage, *out, pose); err != nil {
			log.Fatalf("warp %s: %v", *stillImage, err)
		}
		monitoring.Logf("wrote %s", *out)
		return
	}

	if err := runCamera(*camera, pose); err != nil {
		log.Fatalf("camera: %v", err)
	}
}

// poseFromFlags starts from the config pose and overrides any flag the user set.
func poseFromFlags(cfg *config.DemoConfig) warp.Pose {
	p := cfg.GetPose()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "theta":
			p.ThetaDeg = *theta
		case "phi":
			p.PhiDeg = *phi
		case "gamma":
			p.GammaDeg = *gamma
		case "scale":
			p.Scale = *scale
		case "fovy":
			p.FovyDeg = *fovy
		}
	})
	return p
}

func warpFile(in, out string, pose warp.Pose) error {
	src, err := imaging.Open(in)
	if err != nil {
		return err
	}
	dst, err := warp.Image(src, pose)
	if err != nil {
		return err
	}
	return imaging.Save(dst, out)
}

func runCamera(device int, pose warp.Pose) error {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return err
	}
	defer capture.Close()

	window := gocv.NewWindow("frame")
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	warped := gocv.NewMat()
	defer warped.Close()

	// The matrix depends only on the frame size, so rebuild it only when
	// that changes.
	M := gocv.NewMat()
	defer func() { M.Close() }()
	var side int
	var last image.Point

	for {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			return fmt.Errorf("no frame from camera %d", device)
		}

		if size := image.Pt(frame.Cols(), frame.Rows()); size != last {
			H, sideLength, err := warp.BuildMatrix(size.Y, size.X, pose)
			if err != nil {
				return err
			}
			M.Close()
			M = toMat(H)
			side = int(sideLength)
			last = size
			monitoring.Logf("warp %dx%d -> %dx%d", size.X, size.Y, side, side)
		}

		gocv.WarpPerspective(frame, &warped, M, image.Pt(side, side))
		window.IMShow(warped)
		if window.WaitKey(1) == escKey {
			return nil
		}
	}
}

func toMat(H *mat.Dense) gocv.Mat {
	r, c := H.Dims()
	m := gocv.NewMatWithSize(r, c, gocv.MatTypeCV64F)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.SetDoubleAt(i, j, H.At(i, j))
		}
	}
	return m
}
