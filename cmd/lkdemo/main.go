// Command lkdemo tracks Shi-Tomasi corners with pyramidal Lucas-Kanade
// flow. When every track is lost it detects a fresh set of corners rather
// than stopping.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math/rand/v2"

	"gocv.io/x/gocv"

	"github.com/banshee-data/cvhacks/internal/monitoring"
	"github.com/banshee-data/cvhacks/internal/version"
)

var (
	camera      = flag.Int("camera", 0, "Camera number")
	maxCorners  = flag.Int("corners", 100, "Maximum number of corners to track")
	quality     = flag.Float64("quality", 0.3, "Minimum corner quality relative to the best corner")
	minDistance = flag.Float64("mindist", 7, "Minimum distance between corners (pixels)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const escKey = 27

// Lucas-Kanade parameters.
var (
	lkWindow   = image.Pt(15, 15)
	lkLevels   = 2
	lkCriteria = gocv.NewTermCriteria(gocv.Count|gocv.EPS, 10, 0.03)
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("lkdemo", version.String())
		return
	}

	capture, err := gocv.OpenVideoCapture(*camera)
	if err != nil {
		log.Fatalf("failed to open camera %d: %v", *camera, err)
	}
	defer capture.Close()

	window := gocv.NewWindow("frame")
	defer window.Close()

	if err := run(capture, window); err != nil {
		log.Fatalf("lkdemo: %v", err)
	}
}

func run(capture *gocv.VideoCapture, window *gocv.Window) error {
	frame := gocv.NewMat()
	defer frame.Close()
	if ok := capture.Read(&frame); !ok || frame.Empty() {
		return fmt.Errorf("no frame from camera %d", *camera)
	}

	prevGray := gocv.NewMat()
	defer prevGray.Close()
	gocv.CvtColor(frame, &prevGray, gocv.ColorBGRToGray)

	prevPts := gocv.NewMat()
	defer func() { prevPts.Close() }()
	detect(prevGray, &prevPts)

	gray := gocv.NewMat()
	defer gray.Close()
	nextPts := gocv.NewMat()
	defer nextPts.Close()
	status := gocv.NewMat()
	defer status.Close()
	lkErr := gocv.NewMat()
	defer lkErr.Close()

	// Tracks accumulate on a separate layer that is added to each frame.
	trails := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), frame.Type())
	defer trails.Close()
	trails.SetTo(gocv.NewScalar(0, 0, 0, 0))
	display := gocv.NewMat()
	defer display.Close()

	colors := palette(*maxCorners)

	for {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			return nil
		}
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

		var good [][2]float32
		if !prevPts.Empty() {
			gocv.CalcOpticalFlowPyrLKWithParams(prevGray, gray, prevPts, nextPts, &status, &lkErr,
				lkWindow, lkLevels, lkCriteria, 0, 1e-4)
			good = drawTracks(prevPts, nextPts, status, &frame, &trails, colors)
		}

		if len(good) == 0 {
			// Lost the flow: look for new corners on this frame.
			monitoring.Debugf("lkdemo: re-detecting features")
			detect(gray, &prevPts)
			window.IMShow(frame)
		} else {
			gocv.Add(frame, trails, &display)
			window.IMShow(display)
			prevPts.Close()
			prevPts = pointsMat(good)
		}
		gray.CopyTo(&prevGray)

		if window.WaitKey(1)&0xff == escKey {
			return nil
		}
	}
}

func detect(gray gocv.Mat, corners *gocv.Mat) {
	gocv.GoodFeaturesToTrack(gray, corners, *maxCorners, *quality, *minDistance)
}

// drawTracks draws each successfully tracked point and returns the new
// positions of those points.
func drawTracks(prev, next, status gocv.Mat, frame, trails *gocv.Mat, colors []color.RGBA) [][2]float32 {
	var good [][2]float32
	for i := 0; i < status.Rows(); i++ {
		if status.GetUCharAt(i, 0) != 1 {
			continue
		}
		p := next.GetVecfAt(i, 0)
		q := prev.GetVecfAt(i, 0)
		a := image.Pt(int(p[0]), int(p[1]))
		b := image.Pt(int(q[0]), int(q[1]))

		c := colors[len(good)%len(colors)]
		gocv.Line(trails, a, b, c, 2)
		gocv.Circle(frame, a, 5, c, -1)
		good = append(good, [2]float32{p[0], p[1]})
	}
	return good
}

// pointsMat packs pts into the Nx1 two-channel float layout LK expects.
func pointsMat(pts [][2]float32) gocv.Mat {
	m := gocv.NewMatWithSize(len(pts), 1, gocv.MatTypeCV32FC2)
	data, err := m.DataPtrFloat32()
	if err != nil {
		monitoring.Logf("lkdemo: %v", err)
		return m
	}
	for i, p := range pts {
		data[2*i] = p[0]
		data[2*i+1] = p[1]
	}
	return m
}

func palette(n int) []color.RGBA {
	if n < 1 {
		n = 1
	}
	out := make([]color.RGBA, n)
	for i := range out {
		out[i] = color.RGBA{R: uint8(rand.IntN(256)), G: uint8(rand.IntN(256)), B: uint8(rand.IntN(256)), A: 255}
	}
	return out
}
