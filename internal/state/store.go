package state

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the sensed environment and the
// commanded lamp state. Optional fields are nil until the first reading
// arrives.
type Snapshot struct {
	Temperature *float64   `json:"temperature"`
	Presence    bool       `json:"presence"`
	Brightness  *float64   `json:"brightness"`
	LastSeen    *time.Time `json:"last_seen"`
	LampState   int        `json:"lamp_state"`
}

// Store holds the live runtime state. Writers are the sensing loop and
// the inbound temperature handler; readers are the HTTP status endpoint
// and the WebSocket hub. The lock is never held across I/O.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a consistent copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetSensed records a sample from the video sensor. Brightness, presence
// and last-seen move together so readers never observe a sample half
// applied.
func (s *Store) SetSensed(brightness float64, presence bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Brightness = &brightness
	s.current.Presence = presence
	s.current.LastSeen = &at
}

// SetLamp records the most recent lamp command.
func (s *Store) SetLamp(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.current.LampState = 1
	} else {
		s.current.LampState = 0
	}
}

// SetTemperature records a reading received from the temperature topic.
func (s *Store) SetTemperature(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Temperature = &v
}
