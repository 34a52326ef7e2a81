package mqtt

// TopicSystemStatus carries the bridge's online/offline lifecycle messages
// (retained, plus LWT on unexpected disconnect).
//
// The sensor and actuator topics are not fixed constants: they live in the
// runtime settings store and default to the iotzy/ hierarchy
// (iotzy/sensor/temperature, iotzy/sensor/presence, iotzy/sensor/brightness,
// iotzy/device/lamp/control). The sensing loop reads them from a settings
// snapshot each iteration.
const TopicSystemStatus = "iotzy/system/status"
