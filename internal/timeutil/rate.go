package timeutil

import "time"

// FrameCounter counts processed frames against elapsed time, for the
// "N frames in S sec = R frames / sec" summary the demos print on exit.
type FrameCounter struct {
	clock  Clock
	start  time.Time
	frames int
}

// NewFrameCounter starts counting from clock.Now().
func NewFrameCounter(clock Clock) *FrameCounter {
	if clock == nil {
		clock = RealClock{}
	}
	return &FrameCounter{clock: clock, start: clock.Now()}
}

// Tick records one frame.
func (f *FrameCounter) Tick() {
	f.frames++
}

// Frames returns the number of recorded frames.
func (f *FrameCounter) Frames() int {
	return f.frames
}

// Elapsed returns the time since the counter started.
func (f *FrameCounter) Elapsed() time.Duration {
	return f.clock.Since(f.start)
}

// Rate returns frames per second, or 0 before any time has elapsed.
func (f *FrameCounter) Rate() float64 {
	sec := f.Elapsed().Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(f.frames) / sec
}
