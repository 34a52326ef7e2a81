package vision

// Region is an area of a frame where the detector found a person.
type Region struct {
	Row   int
	Col   int
	Scale int
}

// Detector reports regions of a frame that contain a person. Any
// non-empty result means presence.
type Detector interface {
	Detect(f *Frame) []Region
}

// Source is an open video stream. ReadFrame blocks until the next frame
// is available or the stream fails.
type Source interface {
	ReadFrame() (*Frame, error)
	Close() error
}

// Opener resolves a camera index to an open Source. The sensing loop
// calls it each time it (re)acquires the device.
type Opener func(index int) (Source, error)
