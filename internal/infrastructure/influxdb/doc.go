// Package influxdb provides the optional telemetry history sink for the
// IoTzy bridge.
//
// When enabled, every sensing sample (brightness, presence), every
// inbound temperature reading, and every lamp transition is written as a
// time-series point. This is strictly a side channel: writes are
// non-blocking and batched, and failures never affect the sensing loop.
//
// The live system of record is the in-memory state store; InfluxDB only
// holds history for dashboards and after-the-fact analysis. When disabled
// (the default), the bridge runs without it.
package influxdb
