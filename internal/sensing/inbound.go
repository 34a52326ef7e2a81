package sensing

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/iotzy/iotzy-bridge/internal/infrastructure/logging"
	"github.com/iotzy/iotzy-bridge/internal/state"
)

// temperatureKeys are accepted payload field names, checked in order.
var temperatureKeys = []string{"value", "temperature", "temp"}

// TemperatureHandler returns a bus message handler that extracts a
// numeric temperature reading and pushes it into the state store.
// Malformed payloads (bad JSON, missing keys, non-numeric values) are
// dropped silently; a noisy sensor never surfaces as an error.
func TemperatureHandler(st *state.Store, telemetry TelemetryWriter, log *logging.Logger) func(topic string, payload []byte) error {
	return func(topic string, payload []byte) error {
		var doc map[string]any
		if err := json.Unmarshal(payload, &doc); err != nil {
			log.Debug("dropping malformed temperature payload", "topic", topic, "error", err)
			return nil
		}

		for _, key := range temperatureKeys {
			v, ok := numericValue(doc[key])
			if !ok {
				continue
			}
			st.SetTemperature(v)
			if telemetry != nil {
				telemetry.WriteTemperature(v, time.Now())
			}
			return nil
		}

		log.Debug("dropping temperature payload without numeric reading", "topic", topic)
		return nil
	}
}

// numericValue extracts a reading from a decoded JSON value. Sensors
// vary: some publish numbers, some string-encoded numbers. Both are
// accepted.
func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
