package sensing

import (
	"encoding/json"

	"github.com/iotzy/iotzy-bridge/internal/infrastructure/logging"
)

// Bus is the publish surface the loop needs from the MQTT client.
type Bus interface {
	IsConnected() bool
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Publisher serialises readings and lamp commands onto the bus.
// Publishes are fire-and-forget: while the bus is disconnected they are
// dropped silently, and publish errors are debug-logged only. The loop
// never blocks or fails on bus conditions.
type Publisher struct {
	bus Bus
	qos byte
	log *logging.Logger
}

// NewPublisher wraps a bus client. qos applies to every outbound
// message.
func NewPublisher(bus Bus, qos byte, log *logging.Logger) *Publisher {
	return &Publisher{bus: bus, qos: qos, log: log}
}

type valuePayload struct {
	Value float64 `json:"value"`
}

type lampPayload struct {
	State  int    `json:"state"`
	Source string `json:"source"`
}

// Brightness publishes a brightness reading rounded to three decimals.
func (p *Publisher) Brightness(topic string, v float64) {
	p.send(topic, valuePayload{Value: round3(v)})
}

// Presence publishes a presence reading as 0|1.
func (p *Publisher) Presence(topic string, present bool) {
	v := 0.0
	if present {
		v = 1.0
	}
	p.send(topic, valuePayload{Value: v})
}

// Lamp publishes a lamp command.
func (p *Publisher) Lamp(topic string, on bool) {
	state := 0
	if on {
		state = 1
	}
	p.send(topic, lampPayload{State: state, Source: "camera"})
}

func (p *Publisher) send(topic string, payload any) {
	if !p.bus.IsConnected() {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Debug("dropping unmarshalable payload", "topic", topic, "error", err)
		return
	}

	if err := p.bus.Publish(topic, data, p.qos, false); err != nil {
		p.log.Debug("publish failed", "topic", topic, "error", err)
	}
}
