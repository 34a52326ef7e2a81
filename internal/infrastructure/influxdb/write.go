package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSample records one sensing-loop sample.
//
// The write is non-blocking; points are batched and sent asynchronously, so
// this is safe to call from the sensing loop without affecting its period.
//
// Parameters:
//   - camera: capture device index the sample came from
//   - brightness: normalized mean luminance in [0,1]
//   - presence: whether a person was detected in the frame
//   - at: sample timestamp
func (c *Client) WriteSample(camera int, brightness float64, presence bool, at time.Time) {
	if !c.IsConnected() {
		return
	}

	presenceVal := 0
	if presence {
		presenceVal = 1
	}

	point := write.NewPoint(
		"camera_sample",
		map[string]string{
			"camera": strconv.Itoa(camera),
		},
		map[string]interface{}{
			"brightness": brightness,
			"presence":   presenceVal,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteTemperature records an inbound temperature reading from the bus.
func (c *Client) WriteTemperature(value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"temperature",
		nil,
		map[string]interface{}{
			"value": value,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteLampState records a lamp actuation transition.
func (c *Client) WriteLampState(on bool, at time.Time) {
	if !c.IsConnected() {
		return
	}

	state := 0
	if on {
		state = 1
	}

	point := write.NewPoint(
		"lamp_state",
		map[string]string{
			"source": "camera",
		},
		map[string]interface{}{
			"state": state,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}
