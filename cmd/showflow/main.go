// Command showflow displays dense optical flow from a camera or video file
// and logs the average flow velocity of each frame.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"

	"gocv.io/x/gocv"

	"github.com/banshee-data/cvhacks/internal/config"
	"github.com/banshee-data/cvhacks/internal/flow"
	"github.com/banshee-data/cvhacks/internal/monitoring"
	"github.com/banshee-data/cvhacks/internal/timeutil"
	"github.com/banshee-data/cvhacks/internal/units"
	"github.com/banshee-data/cvhacks/internal/version"
)

var (
	file        = flag.String("file", "", "Read from video file instead of a camera")
	camera      = flag.Int("camera", 0, "Camera number")
	scaledown   = flag.Float64("scaledown", 1, "Divide the frame size by this factor before computing flow")
	moveStep    = flag.Int("movestep", flow.DefaultMoveStep, "Move step (pixels) for sampling the flow field")
	distance    = flag.Float64("distance", 0, "Distance to the scene in meters; 0 reports pixels per second")
	angle       = flag.Float64("angle", 0, "Camera perspective angle in radians; 0 reports pixels per second")
	timestep    = flag.Float64("timestep", 1, "Seconds between frames; 0 measures wall-clock time")
	speedUnits  = flag.String("units", units.MPS, "Velocity units for physical output ("+units.GetValidUnitsString()+")")
	configFile  = flag.String("config", "", "Path to a demo config JSON file")
	verbose     = flag.Bool("v", false, "Log per-frame velocities")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// Farneback parameters.
const (
	pyrScale   = 0.5
	levels     = 5
	winSize    = 13
	iterations = 10
	polyN      = 5
	polySigma  = 1.1
)

const escKey = 27

var flowColor = color.RGBA{G: 255, A: 255}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("showflow", version.String())
		return
	}

	cfg, err := config.LoadOrEmpty(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applyConfig(cfg)
	monitoring.SetVerbose(*verbose)

	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q: valid options are %s", *speedUnits, units.GetValidUnitsString())
	}
	if *scaledown < 1 {
		log.Fatalf("scaledown must be at least 1, got %v", *scaledown)
	}

	calc, err := flow.NewCalculator(flow.CalculatorConfig{MoveStep: *moveStep, PerspectiveAngle: *angle}, nil)
	if err != nil {
		log.Fatalf("failed to create flow calculator: %v", err)
	}

	var source interface{} = *camera
	if *file != "" {
		source = *file
	}
	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		log.Fatalf("failed to open video source %v: %v", source, err)
	}
	defer capture.Close()

	width := int(capture.Get(gocv.VideoCaptureFrameWidth) / *scaledown)
	height := int(capture.Get(gocv.VideoCaptureFrameHeight) / *scaledown)

	window := gocv.NewWindow("Optical Flow")
	defer window.Close()

	counter := timeutil.NewFrameCounter(nil)
	run(capture, window, calc, image.Pt(width, height), counter)

	elapsed := counter.Elapsed().Seconds()
	fmt.Printf("%dx%d image: %d frames in %3.3f sec = %3.3f frames / sec\n",
		width, height, counter.Frames(), elapsed, counter.Rate())
}

// applyConfig fills flags the user did not set from cfg.
func applyConfig(cfg *config.DemoConfig) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["movestep"] {
		*moveStep = cfg.GetMoveStep()
	}
	if !set["scaledown"] {
		*scaledown = cfg.GetScaledown()
	}
	if !set["distance"] {
		*distance = cfg.GetDistance()
	}
	if !set["angle"] {
		*angle = cfg.GetPerspectiveAngle()
	}
	if !set["timestep"] {
		*timestep = cfg.GetTimestep()
	}
	if !set["units"] {
		*speedUnits = cfg.GetUnits()
	}
}

func run(capture *gocv.VideoCapture, window *gocv.Window, calc *flow.Calculator, size image.Point, counter *timeutil.FrameCounter) {
	frame := gocv.NewMat()
	defer frame.Close()
	small := gocv.NewMat()
	defer small.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	prev := gocv.NewMat()
	defer prev.Close()
	field := gocv.NewMat()
	defer field.Close()

	for {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			return
		}
		counter.Tick()

		gocv.Resize(frame, &small, size, 0, 0, gocv.InterpolationLinear)
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)

		if !prev.Empty() {
			gocv.CalcOpticalFlowFarneback(prev, gray, &field, pyrScale, levels, winSize, iterations, polyN, polySigma, 0)
			if err := report(calc, field, &small); err != nil {
				monitoring.Logf("flow: %v", err)
			}
		}
		gray.CopyTo(&prev)

		window.IMShow(small)
		if window.WaitKey(1)&0xff == escKey {
			return
		}
	}
}

// report converts one Farneback field to a velocity and draws the sampled vectors on img.
func report(calc *flow.Calculator, field gocv.Mat, img *gocv.Mat) error {
	data, err := field.DataPtrFloat32()
	if err != nil {
		return fmt.Errorf("read flow field: %w", err)
	}
	f, err := flow.NewField(field.Cols(), field.Rows(), data)
	if err != nil {
		return err
	}

	v, err := calc.Process(f, *distance, *timestep, func(vec flow.Vector) {
		from := image.Pt(vec.X, vec.Y)
		to := image.Pt(vec.X+int(vec.DX), vec.Y+int(vec.DY))
		gocv.Line(img, from, to, flowColor, 1)
		gocv.Circle(img, from, 1, flowColor, -1)
	})
	if err != nil {
		return err
	}

	unit := v.Unit
	x, y := v.X, v.Y
	if unit == units.MPS && units.IsPhysical(*speedUnits) {
		unit = *speedUnits
		x, y = units.ConvertSpeed(x, unit), units.ConvertSpeed(y, unit)
	}
	monitoring.Debugf("velocity x=%+.3f y=%+.3f %s", x, y, units.Label(unit))
	return nil
}
