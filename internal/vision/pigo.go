package vision

import (
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/iotzy/iotzy-bridge/internal/infrastructure/config"
)

// PigoDetector runs a pretrained pigo cascade over grayscale frames.
// It is safe for use from a single goroutine; the sensing loop is the
// only caller.
type PigoDetector struct {
	classifier *pigo.Pigo
	cfg        config.DetectorConfig
}

// NewPigoDetector loads the cascade file named in the bootstrap config.
func NewPigoDetector(cfg config.DetectorConfig) (*PigoDetector, error) {
	data, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCascade, err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCascade, err)
	}

	return &PigoDetector{classifier: classifier, cfg: cfg}, nil
}

// Detect sweeps the cascade over the frame and returns clustered
// regions above the configured quality threshold.
func (d *PigoDetector) Detect(f *Frame) []Region {
	if f == nil || len(f.Pixels) == 0 {
		return nil
	}

	params := pigo.CascadeParams{
		MinSize:     d.cfg.MinSize,
		MaxSize:     d.cfg.MaxSize,
		ShiftFactor: d.cfg.ShiftFactor,
		ScaleFactor: d.cfg.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: f.Pixels,
			Rows:   f.Height,
			Cols:   f.Width,
			Dim:    f.Width,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	var regions []Region
	for _, det := range dets {
		if float64(det.Q) < d.cfg.QualityThreshold {
			continue
		}
		regions = append(regions, Region{Row: det.Row, Col: det.Col, Scale: det.Scale})
	}
	return regions
}
