package mqtt

import (
	"errors"
	"strings"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// newDisconnectedClient builds a Client that has never connected.
// Used to exercise validation paths without a broker.
func newDisconnectedClient() *Client {
	opts := Options{
		Host:     "localhost",
		Port:     1883,
		ClientID: "iotzy-test",
		QoS:      0,
	}
	clientOpts := buildClientOptions(opts)
	return &Client{
		opts:          opts,
		options:       clientOpts,
		subscriptions: make(map[string]subscription),
		client:        pahomqtt.NewClient(clientOpts),
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name:    "valid",
			opts:    Options{Host: "localhost", Port: 1883, ClientID: "c", QoS: 1},
			wantErr: false,
		},
		{
			name:    "empty host",
			opts:    Options{Port: 1883, ClientID: "c"},
			wantErr: true,
		},
		{
			name:    "port out of range",
			opts:    Options{Host: "localhost", Port: 0, ClientID: "c"},
			wantErr: true,
		},
		{
			name:    "empty client id",
			opts:    Options{Host: "localhost", Port: 1883},
			wantErr: true,
		},
		{
			name:    "invalid qos",
			opts:    Options{Host: "localhost", Port: 1883, ClientID: "c", QoS: 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildClientOptions_BrokerScheme(t *testing.T) {
	plain := buildClientOptions(Options{Host: "broker.local", Port: 1883, ClientID: "c"})
	if got := plain.Servers[0].String(); got != "tcp://broker.local:1883" {
		t.Errorf("broker URL = %q, want tcp://broker.local:1883", got)
	}

	secure := buildClientOptions(Options{Host: "broker.local", Port: 8883, ClientID: "c", TLS: true})
	if got := secure.Servers[0].String(); got != "ssl://broker.local:8883" {
		t.Errorf("broker URL = %q, want ssl://broker.local:8883", got)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := newDisconnectedClient()

	if err := c.Publish("", []byte("x"), 0, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish(empty topic) error = %v, want ErrInvalidTopic", err)
	}

	if err := c.Publish("iotzy/test", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish(qos 3) error = %v, want ErrInvalidQoS", err)
	}

	big := make([]byte, maxPayloadSize+1)
	if err := c.Publish("iotzy/test", big, 0, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish(oversized) error = %v, want ErrPublishFailed", err)
	}

	if err := c.Publish("iotzy/test", []byte("x"), 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish(disconnected) error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := newDisconnectedClient()
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 0, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}

	if err := c.Subscribe("iotzy/test", 0, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}

	if err := c.Subscribe("iotzy/test", 0, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe(disconnected) error = %v, want ErrNotConnected", err)
	}

	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes, want 0", c.SubscriptionCount())
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("iotzy-bridge")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"client_id":"iotzy-bridge"`) {
		t.Errorf("unexpected online payload: %s", online)
	}

	offline := buildOfflinePayload("iotzy-bridge")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("unexpected offline payload: %s", offline)
	}
}
