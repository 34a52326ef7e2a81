package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root bootstrap configuration for the IoTzy bridge.
//
// This covers the static, deployment-time settings loaded once at startup:
// logging, HTTP server, storage paths, and detector tuning. The
// runtime-reconfigurable settings (broker address, topics, automation
// thresholds) live in the settings store, not here.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Settings SettingsConfig `yaml:"settings"`
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains the optional telemetry history sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MQTTConfig contains the deployment-static MQTT client settings.
// Broker address and credentials come from the runtime settings store.
type MQTTConfig struct {
	ClientID string `yaml:"client_id"`
	QoS      int    `yaml:"qos"`
}

// SettingsConfig locates the persisted runtime settings document.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// CameraConfig contains frame source settings.
//
// Streams maps capture device indexes to MJPEG-over-HTTP stream URLs.
// The runtime settings' camera_index selects an entry from this list.
type CameraConfig struct {
	Streams     []string `yaml:"streams"`
	ReadTimeout int      `yaml:"read_timeout"`
}

// DetectorConfig contains person detector tuning.
type DetectorConfig struct {
	// CascadePath is the pretrained pigo cascade file.
	CascadePath string `yaml:"cascade_path"`

	// MinSize and MaxSize bound the detection window in pixels.
	MinSize int `yaml:"min_size"`
	MaxSize int `yaml:"max_size"`

	// ShiftFactor and ScaleFactor control the sliding-window sweep.
	ShiftFactor float64 `yaml:"shift_factor"`
	ScaleFactor float64 `yaml:"scale_factor"`

	// QualityThreshold filters low-confidence detections.
	QualityThreshold float64 `yaml:"quality_threshold"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: IOTZY_SECTION_KEY
// For example: IOTZY_DATABASE_PATH, IOTZY_INFLUXDB_TOKEN
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/iotzy.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		MQTT: MQTTConfig{
			ClientID: "iotzy-bridge",
			QoS:      0,
		},
		Settings: SettingsConfig{
			Path: "./data/settings.json",
		},
		Camera: CameraConfig{
			Streams:     []string{"http://127.0.0.1:8081/stream"},
			ReadTimeout: 10,
		},
		Detector: DetectorConfig{
			CascadePath:      "./data/cascade/facefinder",
			MinSize:          40,
			MaxSize:          800,
			ShiftFactor:      0.1,
			ScaleFactor:      1.1,
			QualityThreshold: 5.0,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: IOTZY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IOTZY_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("IOTZY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("IOTZY_SETTINGS_PATH"); v != "" {
		cfg.Settings.Path = v
	}
	if v := os.Getenv("IOTZY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("IOTZY_DETECTOR_CASCADE"); v != "" {
		cfg.Detector.CascadePath = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Settings.Path == "" {
		errs = append(errs, "settings.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.ClientID == "" {
		errs = append(errs, "mqtt.client_id is required")
	}

	if len(c.Camera.Streams) == 0 {
		errs = append(errs, "camera.streams must list at least one stream URL")
	}

	if c.Detector.CascadePath == "" {
		errs = append(errs, "detector.cascade_path is required")
	}
	if c.Detector.ScaleFactor <= 1.0 {
		errs = append(errs, "detector.scale_factor must be greater than 1.0")
	}
	if c.Detector.ShiftFactor <= 0 || c.Detector.ShiftFactor > 1 {
		errs = append(errs, "detector.shift_factor must be in (0, 1]")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}

// GetReadTimeout returns the frame read timeout as a Duration.
func (c CameraConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}
