// Package config loads and validates the bootstrap configuration for the
// IoTzy bridge.
//
// Bootstrap configuration is the static part of the system: where to listen,
// where to store data, how to log, and how the person detector is tuned.
// It is loaded once at startup from YAML and never changes at runtime.
//
// The runtime-reconfigurable settings (MQTT broker, topic names, automation
// thresholds, camera index) are deliberately not part of this package; they
// are owned by the settings store, which supports atomic replacement while
// the process is running.
//
// # Loading order
//
//  1. Hardcoded defaults
//  2. YAML file (IOTZY_CONFIG or configs/config.yaml)
//  3. IOTZY_* environment variable overrides
package config
