package events

import "time"

// Event types recorded by the sensing loop.
const (
	TypeLamp     = "lamp"
	TypePresence = "presence"
)

// Event is one recorded actuation or presence transition.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	LampState  int       `json:"lamp_state"`
	Presence   bool      `json:"presence"`
	Brightness float64   `json:"brightness"`
	CreatedAt  time.Time `json:"created_at"`
}
