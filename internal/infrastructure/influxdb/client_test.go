package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iotzy/iotzy-bridge/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect(disabled) error = %v, want ErrDisabled", err)
	}
}

func TestClient_DisconnectedBehaviour(t *testing.T) {
	// A zero-value client is never connected; writes must be silent no-ops
	// and health checks must fail cleanly.
	c := &Client{}

	if c.IsConnected() {
		t.Error("IsConnected() = true for zero client")
	}

	// Must not panic with a nil writeAPI.
	c.WriteSample(0, 0.5, true, time.Now())
	c.WriteTemperature(21.5, time.Now())
	c.WriteLampState(true, time.Now())
	c.Flush()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}
