package settings

// Topics names the MQTT topics the bridge publishes to and consumes from.
// In a patch the whole group is replaced at once, never merged field-by-field.
type Topics struct {
	Temperature string `json:"temperature"`
	Presence    string `json:"presence"`
	Brightness  string `json:"brightness"`
	LampControl string `json:"lamp_control"`
}

// Automation holds the lamp hysteresis policy parameters.
//
// LampOnThreshold must be strictly below LampOffThreshold; the gap between
// them is the hysteresis band that prevents flapping near a single boundary.
type Automation struct {
	LampEnabled      bool    `json:"lamp_enabled"`
	LampOnThreshold  float64 `json:"lamp_on_threshold"`
	LampOffThreshold float64 `json:"lamp_off_threshold"`
}

// Settings is the runtime-reconfigurable configuration of the bridge.
//
// It is a plain value type: the store hands out copies, so a snapshot taken
// by the sensing loop stays coherent for the whole iteration even if a
// reconfiguration lands mid-frame.
type Settings struct {
	MQTTHost     string     `json:"mqtt_host"`
	MQTTPort     int        `json:"mqtt_port"`
	MQTTUseTLS   bool       `json:"mqtt_use_ssl"`
	MQTTUsername string     `json:"mqtt_username"`
	MQTTPassword string     `json:"mqtt_password"`
	CameraIndex  int        `json:"camera_index"`
	Topics       Topics     `json:"topics"`
	Automation   Automation `json:"automation"`
}

// Default returns the settings used when no persisted document exists.
func Default() Settings {
	return Settings{
		MQTTHost: "broker.hivemq.com",
		MQTTPort: 1883,
		Topics: Topics{
			Temperature: "iotzy/sensor/temperature",
			Presence:    "iotzy/sensor/presence",
			Brightness:  "iotzy/sensor/brightness",
			LampControl: "iotzy/device/lamp/control",
		},
		Automation: Automation{
			LampEnabled:      true,
			LampOnThreshold:  0.35,
			LampOffThreshold: 0.5,
		},
	}
}

// Patch is a partial settings update. Only non-nil fields are applied.
//
// The nested Topics and Automation groups replace their whole sub-object
// when present; there is no deep merge below the top level.
type Patch struct {
	MQTTHost     *string     `json:"mqtt_host"`
	MQTTPort     *int        `json:"mqtt_port"`
	MQTTUseTLS   *bool       `json:"mqtt_use_ssl"`
	MQTTUsername *string     `json:"mqtt_username"`
	MQTTPassword *string     `json:"mqtt_password"`
	CameraIndex  *int        `json:"camera_index"`
	Topics       *Topics     `json:"topics"`
	Automation   *Automation `json:"automation"`
}

// applyTo returns a copy of s with the patch's present fields applied.
// One merge rule per top-level field.
func (p Patch) applyTo(s Settings) Settings {
	if p.MQTTHost != nil {
		s.MQTTHost = *p.MQTTHost
	}
	if p.MQTTPort != nil {
		s.MQTTPort = *p.MQTTPort
	}
	if p.MQTTUseTLS != nil {
		s.MQTTUseTLS = *p.MQTTUseTLS
	}
	if p.MQTTUsername != nil {
		s.MQTTUsername = *p.MQTTUsername
	}
	if p.MQTTPassword != nil {
		s.MQTTPassword = *p.MQTTPassword
	}
	if p.CameraIndex != nil {
		s.CameraIndex = *p.CameraIndex
	}
	if p.Topics != nil {
		s.Topics = *p.Topics
	}
	if p.Automation != nil {
		s.Automation = *p.Automation
	}
	return s
}

// Validate checks settings for values that would produce a broken bridge.
//
// An inverted threshold pair (on >= off) is rejected here rather than
// tolerated: such a policy never settles, toggling the lamp on every sample
// around the boundary.
func (s Settings) Validate() error {
	if s.MQTTHost == "" {
		return errf("mqtt_host cannot be empty")
	}
	if s.MQTTPort < 1 || s.MQTTPort > 65535 {
		return errf("mqtt_port %d out of range", s.MQTTPort)
	}
	if s.CameraIndex < 0 {
		return errf("camera_index %d cannot be negative", s.CameraIndex)
	}

	if s.Topics.Temperature == "" || s.Topics.Presence == "" ||
		s.Topics.Brightness == "" || s.Topics.LampControl == "" {
		return errf("topics cannot be empty")
	}

	a := s.Automation
	if a.LampOnThreshold < 0 || a.LampOnThreshold > 1 {
		return errf("lamp_on_threshold %v outside [0,1]", a.LampOnThreshold)
	}
	if a.LampOffThreshold < 0 || a.LampOffThreshold > 1 {
		return errf("lamp_off_threshold %v outside [0,1]", a.LampOffThreshold)
	}
	if a.LampOnThreshold >= a.LampOffThreshold {
		return errf("lamp_on_threshold %v must be below lamp_off_threshold %v",
			a.LampOnThreshold, a.LampOffThreshold)
	}

	return nil
}
